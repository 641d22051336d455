package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// CheckoutRequest describes the single line item sent to a hosted checkout.
// Each gateway charges in its own configured currency.
type CheckoutRequest struct {
	DonationID  uint
	Amount      decimal.Decimal
	Description string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is what a gateway hands back: the reference to persist and
// where to send the donor.
type CheckoutSession struct {
	Reference   string
	RedirectURL string
}

// Confirmation carries what the gateway put on the return URL, plus the
// donation the payment must belong to.
type Confirmation struct {
	Reference string
	PayerID   string

	DonationID uint
	Amount     decimal.Decimal
}

// Gateway is a hosted payment provider for one donation method.
type Gateway interface {
	// Method is the donation method tag served by this gateway.
	Method() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// VerifyPayment succeeds only once the provider reports the payment as
	// collected for c.DonationID and c.Amount.
	VerifyPayment(ctx context.Context, c Confirmation) error
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
