package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/services"
)

func (rt *Routes) AdminDashboard(c *gin.Context) {
	stats, err := rt.admin.Stats(c.Request.Context())
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title": "Admin Dashboard",
		"Stats": stats,
	})
}

func (rt *Routes) AdminCampaigns(c *gin.Context) {
	campaigns, err := rt.catalog.AllCampaigns(c.Request.Context())
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "admin/campaigns.html", gin.H{
		"Title":     "Manage Campaigns",
		"Campaigns": campaigns,
	})
}

func (rt *Routes) renderCampaignForm(c *gin.Context, code int, form campaignForm, errs []string) {
	rt.html(c, code, "admin/campaign_form.html", gin.H{
		"Title":      "New Campaign",
		"Form":       form,
		"Errors":     errs,
		"Categories": models.CampaignCategories,
	})
}

func (rt *Routes) AdminNewCampaign(c *gin.Context) {
	rt.renderCampaignForm(c, http.StatusOK, campaignForm{}, nil)
}

func (rt *Routes) AdminCreateCampaign(c *gin.Context) {
	var form campaignForm
	if err := c.ShouldBind(&form); err != nil {
		rt.renderCampaignForm(c, http.StatusBadRequest, form, formErrors(err))
		return
	}
	goal, err := parseAmount(form.GoalAmount)
	if err != nil {
		rt.renderCampaignForm(c, http.StatusBadRequest, form, []string{"Goal amount must be a number."})
		return
	}
	endDate, err := parseDate(form.EndDate)
	if err != nil {
		rt.renderCampaignForm(c, http.StatusBadRequest, form, []string{"End date must be a date (YYYY-MM-DD)."})
		return
	}

	campaign, err := rt.catalog.CreateCampaign(c.Request.Context(), services.CampaignInput{
		Title:       form.Title,
		Description: form.Description,
		GoalAmount:  goal,
		Category:    form.Category,
		ImageURL:    form.ImageURL,
		EndDate:     endDate,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			rt.renderCampaignForm(c, http.StatusBadRequest, form,
				[]string{fmt.Sprintf("Goal amount must be at least $%s.", services.MinGoalAmount.StringFixed(2))})
			return
		}
		rt.serverError(c, err)
		return
	}

	log.Printf("Admin %d created campaign %d (%s)", currentUser(c).ID, campaign.ID, campaign.Slug)
	rt.addFlash(c, "Campaign created successfully!")
	c.Redirect(http.StatusFound, "/admin/campaigns")
}

// AdminToggleCampaign opens or closes a campaign for donations.
func (rt *Routes) AdminToggleCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		rt.NotFound(c)
		return
	}
	active := c.PostForm("active") == "true"
	if err := rt.catalog.SetCampaignActive(c.Request.Context(), id, active); err != nil {
		rt.handleLookupError(c, err)
		return
	}
	if active {
		rt.addFlash(c, "Campaign reopened.")
	} else {
		rt.addFlash(c, "Campaign closed.")
	}
	c.Redirect(http.StatusFound, "/admin/campaigns")
}

func (rt *Routes) AdminNews(c *gin.Context) {
	news, err := rt.catalog.AllNews(c.Request.Context())
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "admin/news.html", gin.H{
		"Title": "Manage News",
		"News":  news,
	})
}

func (rt *Routes) AdminNewNews(c *gin.Context) {
	rt.html(c, http.StatusOK, "admin/news_form.html", gin.H{"Title": "New Article"})
}

func (rt *Routes) AdminCreateNews(c *gin.Context) {
	var form newsForm
	if err := c.ShouldBind(&form); err != nil {
		rt.html(c, http.StatusBadRequest, "admin/news_form.html", gin.H{
			"Title":  "New Article",
			"Form":   form,
			"Errors": formErrors(err),
		})
		return
	}

	article, err := rt.catalog.CreateNews(c.Request.Context(), services.NewsInput{
		Title:    form.Title,
		Content:  form.Content,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		rt.serverError(c, err)
		return
	}

	log.Printf("Admin %d published news %d", currentUser(c).ID, article.ID)
	rt.addFlash(c, "News article created successfully!")
	c.Redirect(http.StatusFound, "/admin/news")
}

func (rt *Routes) AdminPayments(c *gin.Context) {
	methods, err := rt.catalog.AllPaymentMethods(c.Request.Context())
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "admin/payments.html", gin.H{
		"Title":          "Payment Methods",
		"PaymentMethods": methods,
	})
}

func (rt *Routes) AdminNewPaymentMethod(c *gin.Context) {
	rt.html(c, http.StatusOK, "admin/payment_form.html", gin.H{
		"Title": "New Payment Method",
		"Form":  paymentMethodForm{MethodType: models.PaymentTypeCrypto},
	})
}

// paymentDetails assembles the detail variant matching the selected type.
func (f paymentMethodForm) paymentDetails() models.PaymentDetails {
	switch f.MethodType {
	case models.PaymentTypeCrypto:
		return models.CryptoPayment(f.WalletAddress)
	case models.PaymentTypeBank:
		return models.BankPayment(models.BankDetails{
			BankName:      strings.TrimSpace(f.BankName),
			AccountNumber: strings.TrimSpace(f.AccountNumber),
			RoutingNumber: strings.TrimSpace(f.RoutingNumber),
			AccountHolder: strings.TrimSpace(f.AccountHolder),
		})
	case models.PaymentTypePayPal:
		return models.PayPalPayment(f.PayPalEmail)
	}
	return models.PaymentDetails{}
}

func (rt *Routes) AdminCreatePaymentMethod(c *gin.Context) {
	var form paymentMethodForm
	renderErr := func(errs []string) {
		rt.html(c, http.StatusBadRequest, "admin/payment_form.html", gin.H{
			"Title":  "New Payment Method",
			"Form":   form,
			"Errors": errs,
		})
	}
	if err := c.ShouldBind(&form); err != nil {
		renderErr(formErrors(err))
		return
	}

	method, err := rt.catalog.CreatePaymentMethod(c.Request.Context(), form.Name, form.paymentDetails())
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			renderErr([]string{detailsMessage(form.MethodType)})
			return
		}
		rt.serverError(c, err)
		return
	}

	log.Printf("Admin %d added %s payment method %d", currentUser(c).ID, method.MethodType, method.ID)
	rt.addFlash(c, "Payment method added successfully!")
	c.Redirect(http.StatusFound, "/admin/payments")
}

func detailsMessage(methodType string) string {
	switch methodType {
	case models.PaymentTypeCrypto:
		return "Wallet address is required."
	case models.PaymentTypeBank:
		return "Bank name, account number and account holder are required."
	case models.PaymentTypePayPal:
		return "PayPal email is required."
	}
	return "Payment details are invalid."
}

func donationStatusFilter(c *gin.Context) string {
	switch status := c.Query("status"); status {
	case models.StatusPending, models.StatusConfirmed:
		return status
	}
	return ""
}

func (rt *Routes) AdminDonations(c *gin.Context) {
	status := donationStatusFilter(c)
	page, err := rt.admin.ListDonations(c.Request.Context(), status, queryPage(c))
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "admin/donations.html", gin.H{
		"Title":  "Donations",
		"Page":   page,
		"Status": status,
	})
}

// AdminConfirmDonation records that a crypto or bank transfer has arrived.
func (rt *Routes) AdminConfirmDonation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		rt.NotFound(c)
		return
	}

	donation, err := rt.donations.ConfirmManual(c.Request.Context(), id)
	switch {
	case err == nil:
		log.Printf("Admin %d confirmed donation %d", currentUser(c).ID, donation.ID)
		rt.addFlash(c, fmt.Sprintf("Donation #%d confirmed.", donation.ID))
	case errors.Is(err, services.ErrNotFound):
		rt.NotFound(c)
		return
	case errors.Is(err, services.ErrInvalidMethod):
		rt.addFlash(c, "Card and PayPal donations are confirmed by the payment gateway.")
	default:
		rt.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/donations?status=pending")
}

func (rt *Routes) AdminExportDonations(c *gin.Context) {
	fileName := fmt.Sprintf("donations_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := rt.admin.ExportDonations(c.Request.Context(), c.Writer, donationStatusFilter(c)); err != nil {
		log.Printf("Donation export failed: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}
