package payments

import (
	"errors"
	"testing"
)

func amountPtr(v float64) *float64 { return &v }

func TestResolvePlanFixedMapping(t *testing.T) {
	cases := []struct {
		sponsorshipType string
		amount          *float64
		wantCents       int64
		wantMode        string
		wantRecurring   bool
	}{
		{"individual", nil, 3000, ModePayment, false},
		{"individual", amountPtr(99999), 3000, ModePayment, false}, // amount ignored
		{"corporate", amountPtr(25000), 25000, ModePayment, false},
		{"corporate", amountPtr(25000.4), 25000, ModePayment, false},
		{"corporate", amountPtr(25000.5), 25001, ModePayment, false},
		{"school", amountPtr(12000), 12000, ModePayment, false},
		{"foundation", nil, 1000, ModeSubscription, true},
		{"foundation", amountPtr(5), 1000, ModeSubscription, true}, // amount ignored
	}

	for _, tc := range cases {
		plan, err := ResolvePlan(tc.sponsorshipType, tc.amount)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.sponsorshipType, err)
		}
		if plan.AmountCents != tc.wantCents {
			t.Fatalf("%s: expected %d cents, got %d", tc.sponsorshipType, tc.wantCents, plan.AmountCents)
		}
		if plan.Mode != tc.wantMode {
			t.Fatalf("%s: expected mode %s, got %s", tc.sponsorshipType, tc.wantMode, plan.Mode)
		}
		if plan.Recurring != tc.wantRecurring {
			t.Fatalf("%s: expected recurring=%v", tc.sponsorshipType, tc.wantRecurring)
		}
		if plan.Currency != DefaultCurrency {
			t.Fatalf("%s: expected currency %s, got %s", tc.sponsorshipType, DefaultCurrency, plan.Currency)
		}
	}
}

func TestResolvePlanMissingType(t *testing.T) {
	_, err := ResolvePlan("", nil)
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
	if err.Error() != "Missing sponsorship type" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestResolvePlanUnknownType(t *testing.T) {
	_, err := ResolvePlan("unknown", nil)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if err.Error() != "Unknown sponsorship type" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestResolvePlanInvalidAmounts(t *testing.T) {
	cases := []struct {
		sponsorshipType string
		amount          *float64
		wantMessage     string
	}{
		{"corporate", nil, "Invalid amount for corporate sponsorship"},
		{"corporate", amountPtr(0), "Invalid amount for corporate sponsorship"},
		{"corporate", amountPtr(-50), "Invalid amount for corporate sponsorship"},
		{"school", nil, "Invalid amount for school sponsorship"},
		{"school", amountPtr(0), "Invalid amount for school sponsorship"},
	}

	for _, tc := range cases {
		_, err := ResolvePlan(tc.sponsorshipType, tc.amount)
		if err == nil {
			t.Fatalf("%s: expected error", tc.sponsorshipType)
		}
		if err.Error() != tc.wantMessage {
			t.Fatalf("%s: expected %q, got %q", tc.sponsorshipType, tc.wantMessage, err.Error())
		}
	}
}
