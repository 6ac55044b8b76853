package repository

import (
	"context"

	"brightpath/server/internal/model"
)

func (s *Store) ListFAQs(ctx context.Context) ([]model.FAQ, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, display_order
		FROM faqs
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []model.FAQ
	for rows.Next() {
		var faq model.FAQ
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.DisplayOrder); err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

func (s *Store) CreateFAQ(ctx context.Context, faq model.FAQ) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faqs (id, question, answer, display_order)
		VALUES ($1, $2, $3, $4)
	`, faq.ID, faq.Question, faq.Answer, faq.DisplayOrder)
	return err
}

func (s *Store) ListReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, author, author_title, rating, quote, display_order
		FROM reviews
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		if err := rows.Scan(&review.ID, &review.Author, &review.AuthorTitle, &review.Rating, &review.Quote, &review.DisplayOrder); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (s *Store) ListCoreValues(ctx context.Context) ([]model.CoreValue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, icon, display_order
		FROM core_values
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []model.CoreValue
	for rows.Next() {
		var value model.CoreValue
		if err := rows.Scan(&value.ID, &value.Title, &value.Description, &value.Icon, &value.DisplayOrder); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (s *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, title, description, display_order
		FROM services
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var service model.Service
		if err := rows.Scan(&service.ID, &service.Slug, &service.Title, &service.Description, &service.DisplayOrder); err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

func (s *Store) ListCreditPlans(ctx context.Context) ([]model.CreditPlan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, credits, price_cents, display_order
		FROM credit_plans
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []model.CreditPlan
	for rows.Next() {
		var plan model.CreditPlan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Credits, &plan.PriceCents, &plan.DisplayOrder); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *Store) ListBlogPosts(ctx context.Context) ([]model.BlogPost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, title, excerpt, body, author, published_at
		FROM blog_posts
		ORDER BY published_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.BlogPost
	for rows.Next() {
		var post model.BlogPost
		if err := rows.Scan(&post.ID, &post.Slug, &post.Title, &post.Excerpt, &post.Body, &post.Author, &post.PublishedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (model.BlogPost, error) {
	var post model.BlogPost
	row := s.pool.QueryRow(ctx, `
		SELECT id, slug, title, excerpt, body, author, published_at
		FROM blog_posts
		WHERE slug = $1
	`, slug)
	err := row.Scan(&post.ID, &post.Slug, &post.Title, &post.Excerpt, &post.Body, &post.Author, &post.PublishedAt)
	return post, err
}

func (s *Store) ListCreditTransactions(ctx context.Context, profileID string, limit int) ([]model.CreditTransaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, profile_id, delta, reason, created_at
		FROM credit_transactions
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []model.CreditTransaction
	for rows.Next() {
		var tx model.CreditTransaction
		if err := rows.Scan(&tx.ID, &tx.ProfileID, &tx.Delta, &tx.Reason, &tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
