package payments

import (
	"context"
	"encoding/json"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const defaultFrontendURL = "http://localhost:5173"

// Session is the provider-neutral view of a created checkout session,
// carrying everything the audit row and the HTTP response need.
type Session struct {
	ID              string
	URL             string
	Status          string
	PaymentIntentID string
	CustomerID      string
	Raw             []byte
}

// Client wraps the Stripe API behind the one operation this service uses.
// Construct once per process and inject; a nil *Client means checkout is
// unconfigured.
type Client struct {
	api         *client.API
	frontendURL string
}

func NewClient(secretKey, frontendURL string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, frontendURL: frontendURL}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, plan Plan, origin string) (Session, error) {
	base := origin
	if base == "" {
		base = c.frontendURL
	}
	if base == "" {
		base = defaultFrontendURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(plan.Mode),
		SuccessURL: stripe.String(base + "/sponsors?status=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + "/sponsors?status=cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(plan.Currency),
				UnitAmount: stripe.Int64(plan.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(plan.ProductName),
				},
			},
		}},
	}
	if plan.Recurring {
		params.LineItems[0].PriceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String("month"),
		}
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, err
	}

	result := Session{
		ID:     sess.ID,
		URL:    sess.URL,
		Status: string(sess.Status),
	}
	if sess.PaymentIntent != nil {
		result.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	}
	if raw, err := json.Marshal(sess); err == nil {
		result.Raw = raw
	}
	return result, nil
}
