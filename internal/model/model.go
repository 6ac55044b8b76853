package model

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Profile struct {
	ID               string
	UserID           string
	FullName         string
	Email            string
	Role             string
	AvailableCredits int
	Bio              *string
	Phone            *string
	AvatarURL        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}

type FAQ struct {
	ID           string
	Question     string
	Answer       string
	DisplayOrder int
}

type Review struct {
	ID           string
	Author       string
	AuthorTitle  string
	Rating       int
	Quote        string
	DisplayOrder int
}

type CoreValue struct {
	ID           string
	Title        string
	Description  string
	Icon         string
	DisplayOrder int
}

type Service struct {
	ID           string
	Slug         string
	Title        string
	Description  string
	DisplayOrder int
}

type CreditPlan struct {
	ID           string
	Name         string
	Credits      int
	PriceCents   int64
	DisplayOrder int
}

type BlogPost struct {
	ID          string
	Slug        string
	Title       string
	Excerpt     string
	Body        string
	Author      string
	PublishedAt time.Time
}

type CreditTransaction struct {
	ID        string
	ProfileID string
	Delta     int
	Reason    string
	CreatedAt time.Time
}

// CheckoutAttempt is the audit row written after every checkout call.
// Rows are insert-only; reconciliation happens outside this service.
type CheckoutAttempt struct {
	ID                    string
	Type                  string
	AmountCents           int64
	Currency              string
	Mode                  string
	Status                string
	StripeSessionID       *string
	StripePaymentIntentID *string
	StripeCustomerID      *string
	RawRequest            []byte
	RawSession            []byte
	CreatedAt             time.Time
}
