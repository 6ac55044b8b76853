package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brightpath/server/internal/model"
)

type faqResponse struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	DisplayOrder int    `json:"display_order"`
}

type reviewResponse struct {
	ID           string `json:"id"`
	Author       string `json:"author"`
	AuthorTitle  string `json:"author_title,omitempty"`
	Rating       int    `json:"rating"`
	Quote        string `json:"quote"`
	DisplayOrder int    `json:"display_order"`
}

type coreValueResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Icon         string `json:"icon,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type serviceResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

type creditPlanResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Credits      int    `json:"credits"`
	PriceCents   int64  `json:"price_cents"`
	DisplayOrder int    `json:"display_order"`
}

type blogPostResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Body        string `json:"body,omitempty"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
}

type creditTransactionResponse struct {
	ID        string `json:"id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

// serveCachedList answers content list requests. Fetch failures degrade to
// an empty array rather than an error: the content pages render without the
// section instead of breaking.
func (s *Server) serveCachedList(w http.ResponseWriter, r *http.Request, cacheKey string, fetch func(context.Context) (interface{}, error)) {
	ctx := r.Context()
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			writeRawJSON(w, http.StatusOK, cached)
			return
		}
	}

	if s.content == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	items, err := fetch(ctx)
	if err != nil {
		log.Printf("content fetch failed (%s): %v", cacheKey, err)
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	if s.redis != nil {
		_ = s.redis.Set(ctx, cacheKey, data, s.cfg.ContentCacheTTL).Err()
	}
	writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:faqs", func(ctx context.Context) (interface{}, error) {
		faqs, err := s.content.ListFAQs(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]faqResponse, 0, len(faqs))
		for _, faq := range faqs {
			resp = append(resp, faqResponse{
				ID:           faq.ID,
				Question:     faq.Question,
				Answer:       faq.Answer,
				DisplayOrder: faq.DisplayOrder,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:reviews", func(ctx context.Context) (interface{}, error) {
		reviews, err := s.content.ListReviews(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]reviewResponse, 0, len(reviews))
		for _, review := range reviews {
			resp = append(resp, reviewResponse{
				ID:           review.ID,
				Author:       review.Author,
				AuthorTitle:  review.AuthorTitle,
				Rating:       review.Rating,
				Quote:        review.Quote,
				DisplayOrder: review.DisplayOrder,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleListCoreValues(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:core-values", func(ctx context.Context) (interface{}, error) {
		values, err := s.content.ListCoreValues(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]coreValueResponse, 0, len(values))
		for _, value := range values {
			resp = append(resp, coreValueResponse{
				ID:           value.ID,
				Title:        value.Title,
				Description:  value.Description,
				Icon:         value.Icon,
				DisplayOrder: value.DisplayOrder,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:services", func(ctx context.Context) (interface{}, error) {
		services, err := s.content.ListServices(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]serviceResponse, 0, len(services))
		for _, service := range services {
			resp = append(resp, serviceResponse{
				ID:           service.ID,
				Slug:         service.Slug,
				Title:        service.Title,
				Description:  service.Description,
				DisplayOrder: service.DisplayOrder,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleListCreditPlans(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:credit-plans", func(ctx context.Context) (interface{}, error) {
		plans, err := s.content.ListCreditPlans(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]creditPlanResponse, 0, len(plans))
		for _, plan := range plans {
			resp = append(resp, creditPlanResponse{
				ID:           plan.ID,
				Name:         plan.Name,
				Credits:      plan.Credits,
				PriceCents:   plan.PriceCents,
				DisplayOrder: plan.DisplayOrder,
			})
		}
		return resp, nil
	})
}

func (s *Server) handleListBlogPosts(w http.ResponseWriter, r *http.Request) {
	s.serveCachedList(w, r, "content:blog", func(ctx context.Context) (interface{}, error) {
		posts, err := s.content.ListBlogPosts(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]blogPostResponse, 0, len(posts))
		for _, post := range posts {
			// Body is omitted from the list view.
			resp = append(resp, blogPostResponse{
				ID:          post.ID,
				Slug:        post.Slug,
				Title:       post.Title,
				Excerpt:     post.Excerpt,
				Author:      post.Author,
				PublishedAt: post.PublishedAt.UTC().Format(time.RFC3339),
			})
		}
		return resp, nil
	})
}

func (s *Server) handleGetBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" || s.content == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	post, err := s.content.GetBlogPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, blogPostResponse{
		ID:          post.ID,
		Slug:        post.Slug,
		Title:       post.Title,
		Excerpt:     post.Excerpt,
		Body:        post.Body,
		Author:      post.Author,
		PublishedAt: post.PublishedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListCreditTransactions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	resp := make([]creditTransactionResponse, 0)
	if s.profiles == nil || s.content == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	profile, err := s.profiles.GetProfileByUserID(r.Context(), claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	transactions, err := s.content.ListCreditTransactions(r.Context(), profile.ID, limit)
	if err != nil {
		log.Printf("credit transactions fetch failed for profile %s: %v", profile.ID, err)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	for _, tx := range transactions {
		resp = append(resp, creditTransactionResponse{
			ID:        tx.ID,
			Delta:     tx.Delta,
			Reason:    tx.Reason,
			CreatedAt: tx.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createFAQRequest struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	DisplayOrder int    `json:"display_order"`
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req createFAQRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Question == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	faq := model.FAQ{
		ID:           uuid.NewString(),
		Question:     req.Question,
		Answer:       req.Answer,
		DisplayOrder: req.DisplayOrder,
	}
	if err := s.store.CreateFAQ(r.Context(), faq); err != nil {
		writeError(w, http.StatusInternalServerError, "faq_create_failed")
		return
	}
	if s.redis != nil {
		_ = s.redis.Del(r.Context(), "content:faqs").Err()
	}

	writeJSON(w, http.StatusCreated, faqResponse{
		ID:           faq.ID,
		Question:     faq.Question,
		Answer:       faq.Answer,
		DisplayOrder: faq.DisplayOrder,
	})
}

type checkoutAttemptResponse struct {
	ID                    string  `json:"id"`
	Type                  string  `json:"type"`
	AmountCents           int64   `json:"amount_cents"`
	Currency              string  `json:"currency"`
	Mode                  string  `json:"mode"`
	Status                string  `json:"status"`
	StripeSessionID       *string `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string `json:"stripe_payment_intent_id,omitempty"`
	StripeCustomerID      *string `json:"stripe_customer_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
}

func (s *Server) handleListCheckoutAttempts(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if s.attempts == nil {
		writeJSON(w, http.StatusOK, []checkoutAttemptResponse{})
		return
	}
	attempts, err := s.attempts.ListCheckoutAttempts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]checkoutAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		resp = append(resp, checkoutAttemptResponse{
			ID:                    attempt.ID,
			Type:                  attempt.Type,
			AmountCents:           attempt.AmountCents,
			Currency:              attempt.Currency,
			Mode:                  attempt.Mode,
			Status:                attempt.Status,
			StripeSessionID:       attempt.StripeSessionID,
			StripePaymentIntentID: attempt.StripePaymentIntentID,
			StripeCustomerID:      attempt.StripeCustomerID,
			CreatedAt:             attempt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
