package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"brightpath/server/internal/model"
	"brightpath/server/internal/payments"
)

type checkoutRequest struct {
	Type string `json:"type"`
	// Amount stays raw so a non-numeric value maps to the same invalid-amount
	// failure as a missing one instead of aborting the whole decode.
	Amount json.RawMessage `json:"amount"`
}

func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.checkout == nil {
		writeError(w, http.StatusInternalServerError, "Checkout is not configured")
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var req checkoutRequest
	if len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var amount *float64
	if len(req.Amount) > 0 {
		var parsed float64
		if err := json.Unmarshal(req.Amount, &parsed); err == nil {
			amount = &parsed
		}
	}

	plan, err := payments.ResolvePlan(req.Type, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.checkout.CreateCheckoutSession(r.Context(), plan, r.Header.Get("Origin"))
	if err != nil {
		log.Printf("checkout session creation failed (type=%s): %v", plan.Type, err)
		writeError(w, http.StatusInternalServerError, "Unable to create checkout session")
		return
	}

	s.recordCheckoutAttempt(r, plan, rawBody, session)

	writeJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

// recordCheckoutAttempt is best effort: a failed insert is logged and the
// caller still gets the checkout URL.
func (s *Server) recordCheckoutAttempt(r *http.Request, plan payments.Plan, rawBody []byte, session payments.Session) {
	if s.attempts == nil {
		return
	}

	attempt := model.CheckoutAttempt{
		ID:          uuid.NewString(),
		Type:        string(plan.Type),
		AmountCents: plan.AmountCents,
		Currency:    plan.Currency,
		Mode:        plan.Mode,
		Status:      session.Status,
		RawRequest:  rawBody,
		RawSession:  session.Raw,
		CreatedAt:   time.Now().UTC(),
	}
	if session.ID != "" {
		attempt.StripeSessionID = &session.ID
	}
	if session.PaymentIntentID != "" {
		attempt.StripePaymentIntentID = &session.PaymentIntentID
	}
	if session.CustomerID != "" {
		attempt.StripeCustomerID = &session.CustomerID
	}

	if err := s.attempts.CreateCheckoutAttempt(r.Context(), attempt); err != nil {
		log.Printf("checkout attempt log failed (session=%s): %v", session.ID, err)
	}
}
