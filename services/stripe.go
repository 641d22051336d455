package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/handsup/donation-platform/models"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway collects card donations through Stripe Checkout.
type StripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway builds a gateway with its own client. backends may be nil;
// tests point it at a local server.
func NewStripeGateway(secretKey, currency string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{api: api, currency: currency}
}

func (g *StripeGateway) Method() string {
	return models.MethodCard
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(req.DonationID), 10)),
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("checkout session %s has no url", s.ID)
	}

	log.Printf("Created stripe checkout session %s for donation %d", s.ID, req.DonationID)
	return &CheckoutSession{Reference: s.ID, RedirectURL: s.URL}, nil
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, c Confirmation) error {
	if c.Reference == "" {
		return fmt.Errorf("missing checkout session id")
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(c.Reference, params)
	if err != nil {
		return fmt.Errorf("fetch checkout session %s: %w", c.Reference, err)
	}
	if c.DonationID != 0 && s.ClientReferenceID != strconv.FormatUint(uint64(c.DonationID), 10) {
		return fmt.Errorf("checkout session %s belongs to donation %q", s.ID, s.ClientReferenceID)
	}
	if c.Amount.IsPositive() && s.AmountTotal != MinorUnits(c.Amount) {
		return fmt.Errorf("checkout session %s total %d does not match %s", s.ID, s.AmountTotal, c.Amount.StringFixed(2))
	}
	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return fmt.Errorf("checkout session %s payment status is %s", s.ID, s.PaymentStatus)
	}
	return nil
}
