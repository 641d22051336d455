package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/handsup/donation-platform/models"
	"github.com/plutov/paypal/v4"
)

// PayPalGateway collects donations through PayPal order approval and capture.
type PayPalGateway struct {
	client   *paypal.Client
	currency string
	mu       sync.Mutex
}

// PayPalBaseURL maps the configured mode to the REST endpoint.
func PayPalBaseURL(mode string) string {
	if mode == "live" {
		return paypal.APIBaseLive
	}
	return paypal.APIBaseSandBox
}

func NewPayPalGateway(clientID, secret, baseURL, currency string) (*PayPalGateway, error) {
	c, err := paypal.NewClient(clientID, secret, baseURL)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	return &PayPalGateway{client: c, currency: currency}, nil
}

func (g *PayPalGateway) Method() string {
	return models.MethodPayPal
}

// authorize fetches an access token the first time; the client refreshes it afterwards.
func (g *PayPalGateway) authorize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client.Token != nil {
		return nil
	}
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal access token: %w", err)
	}
	return nil
}

func (g *PayPalGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := g.authorize(ctx); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: strconv.FormatUint(uint64(req.DonationID), 10),
			Description: req.Description,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: g.currency,
				Value:    req.Amount.StringFixed(2),
			},
		},
	}
	appCtx := &paypal.ApplicationContext{
		ReturnURL:  req.SuccessURL,
		CancelURL:  req.CancelURL,
		UserAction: "PAY_NOW",
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			log.Printf("Created paypal order %s for donation %d", order.ID, req.DonationID)
			return &CheckoutSession{Reference: order.ID, RedirectURL: link.Href}, nil
		}
	}
	return nil, fmt.Errorf("paypal order %s has no approval link", order.ID)
}

// VerifyPayment re-fetches the approved order and captures it for the payer.
func (g *PayPalGateway) VerifyPayment(ctx context.Context, c Confirmation) error {
	if c.Reference == "" || c.PayerID == "" {
		return fmt.Errorf("missing paypal order id or payer id")
	}
	if err := g.authorize(ctx); err != nil {
		return err
	}

	order, err := g.client.GetOrder(ctx, c.Reference)
	if err != nil {
		return fmt.Errorf("fetch paypal order %s: %w", c.Reference, err)
	}
	if order.Payer != nil && order.Payer.PayerID != "" && order.Payer.PayerID != c.PayerID {
		return fmt.Errorf("paypal order %s was approved by another payer", order.ID)
	}
	if err := g.checkPurchaseUnit(order, c); err != nil {
		return err
	}
	if order.Status == "COMPLETED" {
		return nil
	}
	if order.Status != "APPROVED" {
		return fmt.Errorf("paypal order %s is %s", order.ID, order.Status)
	}

	capture, err := g.client.CaptureOrder(ctx, order.ID, paypal.CaptureOrderRequest{})
	if err != nil {
		return fmt.Errorf("capture paypal order %s: %w", order.ID, err)
	}
	if capture.Status != "COMPLETED" {
		return fmt.Errorf("paypal capture for order %s is %s", order.ID, capture.Status)
	}

	log.Printf("Captured paypal order %s for payer %s", order.ID, c.PayerID)
	return nil
}

// checkPurchaseUnit makes sure the order was created for this donation and amount.
func (g *PayPalGateway) checkPurchaseUnit(order *paypal.Order, c Confirmation) error {
	if c.DonationID == 0 {
		return nil
	}
	want := strconv.FormatUint(uint64(c.DonationID), 10)
	for _, unit := range order.PurchaseUnits {
		if unit.ReferenceID != want {
			continue
		}
		if c.Amount.IsPositive() && unit.Amount != nil && unit.Amount.Value != c.Amount.StringFixed(2) {
			return fmt.Errorf("paypal order %s amount %s does not match %s", order.ID, unit.Amount.Value, c.Amount.StringFixed(2))
		}
		return nil
	}
	return fmt.Errorf("paypal order %s does not belong to donation %d", order.ID, c.DonationID)
}
