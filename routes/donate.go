package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/services"
	"github.com/handsup/donation-platform/utils"
)

const paymentErrorMessage = "Payment processing error. Please try again."

// methodOption is one choice on the donation form.
type methodOption struct {
	Value   string
	Label   string
	Enabled bool
}

func (rt *Routes) methodOptions() []methodOption {
	labels := map[string]string{
		models.MethodCard:   "Credit/Debit Card",
		models.MethodPayPal: "PayPal",
		models.MethodCrypto: "Cryptocurrency",
		models.MethodBank:   "Bank Transfer",
	}
	options := make([]methodOption, 0, len(models.DonationMethods))
	for _, m := range models.DonationMethods {
		enabled := true
		if m == models.MethodCard || m == models.MethodPayPal {
			enabled = rt.donations.GatewayEnabled(m)
		}
		options = append(options, methodOption{Value: m, Label: labels[m], Enabled: enabled})
	}
	return options
}

func campaignPath(id uint) string {
	return fmt.Sprintf("/campaign/%d", id)
}

func (rt *Routes) renderDonate(c *gin.Context, code int, campaign *models.Campaign, form donationForm, errs []string) {
	methods, err := rt.catalog.ActivePaymentMethods(c.Request.Context(), "")
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, code, "pages/donate.html", gin.H{
		"Title":          "Donate to " + campaign.Title,
		"Campaign":       campaign,
		"Form":           form,
		"Errors":         errs,
		"Methods":        rt.methodOptions(),
		"PaymentMethods": methods,
	})
}

func (rt *Routes) DonatePage(c *gin.Context) {
	campaign, err := rt.catalog.FindCampaign(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		rt.handleLookupError(c, err)
		return
	}
	rt.renderDonate(c, http.StatusOK, campaign, donationForm{PaymentMethod: models.MethodCard}, nil)
}

// Donate records a pending donation and routes it to its payment backend.
func (rt *Routes) Donate(c *gin.Context) {
	ctx := c.Request.Context()
	campaign, err := rt.catalog.FindCampaign(ctx, c.Param("campaignId"))
	if err != nil {
		rt.handleLookupError(c, err)
		return
	}

	var form donationForm
	if err := c.ShouldBind(&form); err != nil {
		rt.renderDonate(c, http.StatusBadRequest, campaign, form, formErrors(err))
		return
	}
	amount, err := parseAmount(form.Amount)
	if err != nil {
		rt.renderDonate(c, http.StatusBadRequest, campaign, form, []string{"Donation amount must be a number."})
		return
	}

	donation, err := rt.donations.Create(ctx, currentUser(c), campaign.ID, services.DonationRequest{
		Amount:        amount,
		PaymentMethod: form.PaymentMethod,
		Anonymous:     form.Anonymous,
		Message:       form.Message,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound):
		rt.NotFound(c)
		return
	case errors.Is(err, services.ErrAmountTooLow):
		rt.renderDonate(c, http.StatusBadRequest, campaign, form,
			[]string{fmt.Sprintf("Donation amount must be at least $%s.", services.MinDonationAmount.StringFixed(2))})
		return
	case errors.Is(err, services.ErrInvalidMethod):
		rt.renderDonate(c, http.StatusBadRequest, campaign, form, []string{"Please choose a valid payment method."})
		return
	case errors.Is(err, services.ErrGatewayUnavailable):
		rt.renderDonate(c, http.StatusBadRequest, campaign, form, []string{"This payment method is currently unavailable."})
		return
	case errors.Is(err, services.ErrCampaignClosed):
		rt.renderDonate(c, http.StatusBadRequest, campaign, form, []string{"This campaign is no longer accepting donations."})
		return
	default:
		rt.serverError(c, err)
		return
	}

	switch donation.PaymentMethod {
	case models.MethodCard:
		c.Redirect(http.StatusFound, fmt.Sprintf("/process-stripe-payment/%d", donation.ID))
	case models.MethodPayPal:
		c.Redirect(http.StatusFound, fmt.Sprintf("/process-paypal-payment/%d", donation.ID))
	default:
		methods, err := rt.catalog.ActivePaymentMethods(ctx, donation.PaymentMethod)
		if err != nil {
			rt.serverError(c, err)
			return
		}
		rt.html(c, http.StatusOK, "pages/manual_payment.html", gin.H{
			"Title":          "Complete your donation",
			"Donation":       donation,
			"PaymentMethods": methods,
		})
	}
}

func (rt *Routes) ProcessStripePayment(c *gin.Context) {
	rt.startCheckout(c, models.MethodCard)
}

func (rt *Routes) ProcessPayPalPayment(c *gin.Context) {
	rt.startCheckout(c, models.MethodPayPal)
}

func (rt *Routes) startCheckout(c *gin.Context, method string) {
	id, ok := paramID(c, "donationId")
	if !ok {
		rt.NotFound(c)
		return
	}

	donation, redirectURL, err := rt.donations.StartCheckout(c.Request.Context(), currentUser(c), id, method)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			rt.NotFound(c)
			return
		}
		if donation == nil {
			rt.serverError(c, err)
			return
		}
		if errors.Is(err, services.ErrAlreadyConfirmed) {
			rt.addFlash(c, "This donation has already been confirmed.")
		} else {
			rt.addFlash(c, paymentErrorMessage)
		}
		c.Redirect(http.StatusFound, campaignPath(donation.CampaignID))
		return
	}

	c.Redirect(http.StatusSeeOther, redirectURL)
}

// StripeSuccess handles the Checkout success redirect.
func (rt *Routes) StripeSuccess(c *gin.Context) {
	rt.confirmPayment(c, services.Confirmation{Reference: c.Query("session_id")})
}

// PayPalSuccess handles the approval redirect. PayPal v2 sends the order id as
// token; paymentId is accepted as well.
func (rt *Routes) PayPalSuccess(c *gin.Context) {
	reference := c.Query("paymentId")
	if reference == "" {
		reference = c.Query("token")
	}
	rt.confirmPayment(c, services.Confirmation{
		Reference: reference,
		PayerID:   c.Query("PayerID"),
	})
}

func (rt *Routes) confirmPayment(c *gin.Context, confirmation services.Confirmation) {
	id, ok := paramID(c, "donationId")
	if !ok {
		rt.NotFound(c)
		return
	}

	donation, err := rt.donations.Confirm(c.Request.Context(), id, c.Query(services.CallbackTokenParam), confirmation)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound):
		rt.NotFound(c)
		return
	case errors.Is(err, services.ErrInvalidToken):
		rt.errorPage(c, http.StatusForbidden, "This payment link is not valid.")
		return
	case donation != nil:
		rt.addFlash(c, paymentErrorMessage)
		c.Redirect(http.StatusFound, campaignPath(donation.CampaignID))
		return
	default:
		rt.serverError(c, err)
		return
	}

	rt.addFlash(c, "Thank you for your donation!")
	rt.html(c, http.StatusOK, "pages/payment_success.html", gin.H{
		"Title":    "Thank you",
		"Donation": donation,
	})
}

// PaymentCancel removes the pending donation after the donor backed out.
func (rt *Routes) PaymentCancel(c *gin.Context) {
	id, ok := paramID(c, "donationId")
	if !ok {
		rt.NotFound(c)
		return
	}

	donation, err := rt.donations.Cancel(c.Request.Context(), id, c.Query(services.CallbackTokenParam))
	switch {
	case err == nil:
		rt.addFlash(c, "Payment was cancelled.")
		c.Redirect(http.StatusFound, campaignPath(donation.CampaignID))
	case errors.Is(err, services.ErrNotFound):
		// already cancelled
		rt.addFlash(c, "Payment was cancelled.")
		c.Redirect(http.StatusFound, "/campaigns")
	case errors.Is(err, services.ErrInvalidToken):
		rt.errorPage(c, http.StatusForbidden, "This payment link is not valid.")
	case errors.Is(err, services.ErrAlreadyConfirmed):
		rt.addFlash(c, "This donation has already been confirmed.")
		c.Redirect(http.StatusFound, campaignPath(donation.CampaignID))
	default:
		rt.serverError(c, err)
	}
}

// PaymentMethodQRCode renders the wallet address or PayPal email of an active method.
func (rt *Routes) PaymentMethodQRCode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		rt.NotFound(c)
		return
	}
	method, err := rt.catalog.FindPaymentMethod(c.Request.Context(), id)
	if err != nil {
		rt.handleLookupError(c, err)
		return
	}
	if !method.IsActive {
		rt.NotFound(c)
		return
	}

	qrBytes, err := utils.PaymentQRCode(method.PaymentDetails())
	if errors.Is(err, utils.ErrNoQRPayload) {
		rt.NotFound(c)
		return
	}
	if err != nil {
		rt.serverError(c, err)
		return
	}

	log.Printf("QR code generated for payment method %d", method.ID)
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", qrBytes)
}
