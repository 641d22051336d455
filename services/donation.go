package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinDonationAmount is the smallest accepted donation.
var MinDonationAmount = decimal.NewFromInt(1)

// CallbackTokenParam is the query parameter gateway return URLs carry.
const CallbackTokenParam = "callback_token"

// DonationNotifier is told about every donation that becomes confirmed.
type DonationNotifier interface {
	DonationConfirmed(donation models.Donation)
}

// DonationRequest is a validated donation form.
type DonationRequest struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Anonymous     bool
	Message       string
}

// DonationService owns the pending -> confirmed | deleted lifecycle.
type DonationService struct {
	db       *gorm.DB
	baseURL  string
	gateways map[string]Gateway
	notifier DonationNotifier
}

func NewDonationService(db *gorm.DB, baseURL string, gateways ...Gateway) *DonationService {
	ds := &DonationService{
		db:       db,
		baseURL:  strings.TrimRight(baseURL, "/"),
		gateways: make(map[string]Gateway),
	}
	for _, g := range gateways {
		if g != nil {
			ds.gateways[g.Method()] = g
		}
	}
	return ds
}

// SetNotifier registers the live feed.
func (s *DonationService) SetNotifier(n DonationNotifier) {
	s.notifier = n
}

// GatewayEnabled reports whether a hosted checkout exists for method.
func (s *DonationService) GatewayEnabled(method string) bool {
	_, ok := s.gateways[method]
	return ok
}

func validMethod(method string) bool {
	for _, m := range models.DonationMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Create records a pending donation for user on the campaign.
func (s *DonationService) Create(ctx context.Context, user *models.User, campaignID uint, req DonationRequest) (*models.Donation, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !campaign.IsActive {
		return nil, ErrCampaignClosed
	}
	if campaign.EndDate != nil && campaign.EndDate.Before(time.Now().Truncate(24*time.Hour)) {
		return nil, ErrCampaignClosed
	}

	if req.Amount.LessThan(MinDonationAmount) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrAmountTooLow, MinDonationAmount.StringFixed(2))
	}
	if !validMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, req.PaymentMethod)
	}
	if (req.PaymentMethod == models.MethodCard || req.PaymentMethod == models.MethodPayPal) && !s.GatewayEnabled(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, req.PaymentMethod)
	}

	donation := models.Donation{
		Amount:        req.Amount.Round(2),
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		CallbackToken: utils.NewCallbackToken(),
		Anonymous:     req.Anonymous,
		Message:       strings.TrimSpace(req.Message),
		UserID:        user.ID,
		CampaignID:    campaign.ID,
	}
	if err := s.db.WithContext(ctx).Create(&donation).Error; err != nil {
		return nil, err
	}
	donation.Campaign = campaign
	donation.User = *user

	log.Printf("Created pending donation %d: campaign=%d user=%d amount=%s method=%s",
		donation.ID, campaign.ID, user.ID, donation.Amount.StringFixed(2), donation.PaymentMethod)
	return &donation, nil
}

// Get loads a donation with its campaign.
func (s *DonationService) Get(ctx context.Context, donationID uint) (*models.Donation, error) {
	var donation models.Donation
	err := s.db.WithContext(ctx).Preload("Campaign").Preload("User").First(&donation, donationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &donation, nil
}

// StartCheckout opens a hosted checkout for a pending donation owned by user.
// The donation is returned alongside gateway errors so callers can route back
// to its campaign.
func (s *DonationService) StartCheckout(ctx context.Context, user *models.User, donationID uint, method string) (*models.Donation, string, error) {
	donation, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, "", err
	}
	if donation.UserID != user.ID {
		return nil, "", ErrNotFound
	}
	if donation.PaymentMethod != method {
		return donation, "", fmt.Errorf("%w: donation %d uses %s", ErrInvalidMethod, donation.ID, donation.PaymentMethod)
	}
	if donation.IsConfirmed() {
		return donation, "", ErrAlreadyConfirmed
	}

	gateway, ok := s.gateways[method]
	if !ok {
		return donation, "", ErrGatewayUnavailable
	}

	success, cancel := s.callbackURLs(donation)
	session, err := gateway.CreateCheckout(ctx, CheckoutRequest{
		DonationID:  donation.ID,
		Amount:      donation.Amount,
		Description: "Donation to " + donation.Campaign.Title,
		SuccessURL:  success,
		CancelURL:   cancel,
	})
	if err != nil {
		log.Printf("Gateway %s failed for donation %d: %v", method, donation.ID, err)
		return donation, "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ?", donation.ID).
		Update("payment_reference", session.Reference).Error; err != nil {
		return donation, "", err
	}
	donation.PaymentReference = session.Reference

	return donation, session.RedirectURL, nil
}

// callbackURLs builds the return URLs for the donation's gateway.
func (s *DonationService) callbackURLs(d *models.Donation) (string, string) {
	token := CallbackTokenParam + "=" + url.QueryEscape(d.CallbackToken)
	switch d.PaymentMethod {
	case models.MethodPayPal:
		return fmt.Sprintf("%s/paypal-payment-success/%d?%s", s.baseURL, d.ID, token),
			fmt.Sprintf("%s/paypal-payment-cancel/%d?%s", s.baseURL, d.ID, token)
	default:
		// Stripe substitutes {CHECKOUT_SESSION_ID} itself, so it stays unescaped.
		return fmt.Sprintf("%s/payment-success/%d?%s&session_id={CHECKOUT_SESSION_ID}", s.baseURL, d.ID, token),
			fmt.Sprintf("%s/payment-cancel/%d?%s", s.baseURL, d.ID, token)
	}
}

// Confirm reconciles a gateway success callback. Repeated calls for a confirmed
// donation are no-ops and never touch the campaign total again. A reference
// other than the stored one comes from an earlier checkout of the same
// donation; the gateway decides whether it belongs to this donation.
func (s *DonationService) Confirm(ctx context.Context, donationID uint, token string, c Confirmation) (*models.Donation, error) {
	donation, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if !utils.TokensEqual(token, donation.CallbackToken) {
		return nil, ErrInvalidToken
	}
	if donation.IsConfirmed() {
		log.Printf("Donation %d already confirmed, ignoring duplicate callback", donation.ID)
		return donation, nil
	}
	reference := donation.PaymentReference
	if c.Reference != "" && c.Reference != reference {
		log.Printf("Donation %d returned with earlier checkout %s (latest %s)", donation.ID, c.Reference, reference)
		reference = c.Reference
	}

	gateway, ok := s.gateways[donation.PaymentMethod]
	if !ok {
		return donation, ErrGatewayUnavailable
	}
	err = gateway.VerifyPayment(ctx, Confirmation{
		Reference:  reference,
		PayerID:    c.PayerID,
		DonationID: donation.ID,
		Amount:     donation.Amount,
	})
	if err != nil {
		log.Printf("Payment verification failed for donation %d: %v", donation.ID, err)
		return donation, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	return s.markConfirmed(ctx, donation, reference)
}

// ConfirmManual is used by admins once a crypto or bank transfer has arrived.
func (s *DonationService) ConfirmManual(ctx context.Context, donationID uint) (*models.Donation, error) {
	donation, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation.UsesGateway() {
		return donation, fmt.Errorf("%w: %s donations are confirmed by the gateway", ErrInvalidMethod, donation.PaymentMethod)
	}
	if donation.IsConfirmed() {
		return donation, nil
	}
	return s.markConfirmed(ctx, donation, "")
}

// markConfirmed flips pending -> confirmed and credits the campaign in one
// transaction. The conditional update makes concurrent callbacks count once.
// A non-empty reference records the checkout that was actually paid.
func (s *DonationService) markConfirmed(ctx context.Context, donation *models.Donation, reference string) (*models.Donation, error) {
	now := time.Now()
	credited := false

	updates := map[string]interface{}{
		"status":       models.StatusConfirmed,
		"confirmed_at": now,
	}
	if reference != "" {
		updates["payment_reference"] = reference
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Donation{}).
			Where("id = ? AND status = ?", donation.ID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// confirmed by a concurrent callback, or cancelled meanwhile
			return nil
		}

		if err := tx.Model(&models.Campaign{}).
			Where("id = ?", donation.CampaignID).
			Update("current_amount", gorm.Expr("current_amount + ?", donation.Amount)).Error; err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.Get(ctx, donation.ID)
	if err != nil {
		return nil, err
	}
	if credited {
		log.Printf("Donation %d confirmed, campaign %d credited %s",
			fresh.ID, fresh.CampaignID, fresh.Amount.StringFixed(2))
		if s.notifier != nil {
			s.notifier.DonationConfirmed(*fresh)
		}
	}
	return fresh, nil
}

// Cancel deletes a pending donation after the donor backed out at the gateway.
// Confirmed donations are never deleted.
func (s *DonationService) Cancel(ctx context.Context, donationID uint, token string) (*models.Donation, error) {
	donation, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if !utils.TokensEqual(token, donation.CallbackToken) {
		return nil, ErrInvalidToken
	}
	if donation.IsConfirmed() {
		return donation, ErrAlreadyConfirmed
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", donation.ID, models.StatusPending).
		Delete(&models.Donation{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return donation, ErrAlreadyConfirmed
	}

	log.Printf("Donation %d cancelled and removed", donation.ID)
	return donation, nil
}

// UserDonations lists a donor's history, newest first.
func (s *DonationService) UserDonations(ctx context.Context, userID uint) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).
		Preload("Campaign").
		Where("user_id = ?", userID).
		Order("donation_date desc, id desc").
		Find(&donations).Error
	return donations, err
}
