package repository

import (
	"context"

	"brightpath/server/internal/model"
)

func (s *Store) CreateCheckoutAttempt(ctx context.Context, attempt model.CheckoutAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sponsorship_checkout_attempts
			(id, sponsorship_type, amount_cents, currency, mode, status,
			 stripe_session_id, stripe_payment_intent_id, stripe_customer_id,
			 raw_request, raw_session, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, attempt.ID, attempt.Type, attempt.AmountCents, attempt.Currency, attempt.Mode, attempt.Status,
		attempt.StripeSessionID, attempt.StripePaymentIntentID, attempt.StripeCustomerID,
		attempt.RawRequest, attempt.RawSession, attempt.CreatedAt)
	return err
}

func (s *Store) ListCheckoutAttempts(ctx context.Context, limit int) ([]model.CheckoutAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sponsorship_type, amount_cents, currency, mode, status,
		       stripe_session_id, stripe_payment_intent_id, stripe_customer_id,
		       raw_request, raw_session, created_at
		FROM sponsorship_checkout_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.CheckoutAttempt
	for rows.Next() {
		var attempt model.CheckoutAttempt
		if err := rows.Scan(
			&attempt.ID,
			&attempt.Type,
			&attempt.AmountCents,
			&attempt.Currency,
			&attempt.Mode,
			&attempt.Status,
			&attempt.StripeSessionID,
			&attempt.StripePaymentIntentID,
			&attempt.StripeCustomerID,
			&attempt.RawRequest,
			&attempt.RawSession,
			&attempt.CreatedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}
