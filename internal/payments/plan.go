package payments

import (
	"errors"
	"fmt"
	"math"
)

type SponsorshipType string

const (
	SponsorshipIndividual SponsorshipType = "individual"
	SponsorshipCorporate  SponsorshipType = "corporate"
	SponsorshipSchool     SponsorshipType = "school"
	SponsorshipFoundation SponsorshipType = "foundation"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"

	DefaultCurrency = "usd"

	individualAmountCents = 3000
	foundationAmountCents = 1000
)

var (
	ErrMissingType = errors.New("Missing sponsorship type")
	ErrUnknownType = errors.New("Unknown sponsorship type")
)

// Plan is the priced line item a sponsorship type resolves to.
type Plan struct {
	Type        SponsorshipType
	ProductName string
	AmountCents int64
	Currency    string
	Mode        string
	Recurring   bool
}

// ResolvePlan validates the request and applies the fixed mapping table.
// amount is the caller-provided value in cents; nil means absent or
// non-numeric. Only corporate and school sponsorships consult it.
func ResolvePlan(sponsorshipType string, amount *float64) (Plan, error) {
	if sponsorshipType == "" {
		return Plan{}, ErrMissingType
	}

	switch SponsorshipType(sponsorshipType) {
	case SponsorshipIndividual:
		return Plan{
			Type:        SponsorshipIndividual,
			ProductName: "Individual Sponsorship",
			AmountCents: individualAmountCents,
			Currency:    DefaultCurrency,
			Mode:        ModePayment,
		}, nil
	case SponsorshipCorporate:
		cents, err := roundedAmount(SponsorshipCorporate, amount)
		if err != nil {
			return Plan{}, err
		}
		return Plan{
			Type:        SponsorshipCorporate,
			ProductName: "Corporate Sponsorship",
			AmountCents: cents,
			Currency:    DefaultCurrency,
			Mode:        ModePayment,
		}, nil
	case SponsorshipSchool:
		cents, err := roundedAmount(SponsorshipSchool, amount)
		if err != nil {
			return Plan{}, err
		}
		return Plan{
			Type:        SponsorshipSchool,
			ProductName: "School Sponsorship",
			AmountCents: cents,
			Currency:    DefaultCurrency,
			Mode:        ModePayment,
		}, nil
	case SponsorshipFoundation:
		return Plan{
			Type:        SponsorshipFoundation,
			ProductName: "Founding Supporter",
			AmountCents: foundationAmountCents,
			Currency:    DefaultCurrency,
			Mode:        ModeSubscription,
			Recurring:   true,
		}, nil
	default:
		return Plan{}, ErrUnknownType
	}
}

func roundedAmount(sponsorshipType SponsorshipType, amount *float64) (int64, error) {
	if amount == nil || *amount <= 0 {
		return 0, fmt.Errorf("Invalid amount for %s sponsorship", sponsorshipType)
	}
	return int64(math.Round(*amount)), nil
}
