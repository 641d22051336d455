package routes

import (
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	gzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/services"
	"github.com/handsup/donation-platform/utils"
)

// Services bundles the collaborators the handlers call.
type Services struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Donations *services.DonationService
	Admin     *services.AdminService
}

type Routes struct {
	cfg       *utils.Config
	auth      *services.AuthService
	catalog   *services.CatalogService
	donations *services.DonationService
	admin     *services.AdminService
	feed      *Feed
}

func NewRoutes(cfg *utils.Config, svc Services, feed *Feed) *Routes {
	return &Routes{
		cfg:       cfg,
		auth:      svc.Auth,
		catalog:   svc.Catalog,
		donations: svc.Donations,
		admin:     svc.Admin,
		feed:      feed,
	}
}

// NewRouter builds the engine with middleware, templates and every route.
func NewRouter(rt *Routes) (*gin.Engine, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, err
	}
	router.HTMLRender = templates

	router.Use(gin.Recovery())
	if !rt.cfg.IsProduction() {
		router.Use(gin.Logger())
	}
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(securityHeaders())

	rt.SetupRoutes(router)
	return router, nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")

		// static assets are cached for a day
		if strings.HasPrefix(c.Request.URL.Path, "/static/") {
			c.Header("Cache-Control", "public, max-age=86400")
			c.Header("Expires", time.Now().Add(24*time.Hour).Format(time.RFC1123))
		}
		c.Next()
	}
}

// SetupRoutes registers every page, callback and admin route.
func (rt *Routes) SetupRoutes(router *gin.Engine) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("static assets: %v", err)
	}
	router.StaticFS("/static", http.FS(static))

	router.Use(rt.loadUser())

	router.GET("/", rt.Index)
	router.GET("/health", rt.Health)
	router.GET("/ws", rt.feed.Handle)

	router.GET("/login", rt.LoginPage)
	router.POST("/login", rt.Login)
	router.GET("/register", rt.RegisterPage)
	router.POST("/register", rt.Register)
	router.GET("/logout", rt.Logout)

	router.GET("/campaigns", rt.Campaigns)
	router.GET("/campaign/:id", rt.CampaignDetail)
	router.GET("/news", rt.NewsList)
	router.GET("/news/:id", rt.NewsDetail)
	router.GET("/about", rt.staticPage("pages/about.html", "About Us"))
	router.GET("/contact", rt.staticPage("pages/contact.html", "Contact"))
	router.GET("/privacy", rt.staticPage("pages/privacy.html", "Privacy Policy"))
	router.GET("/payment-methods/:id/qrcode", rt.PaymentMethodQRCode)

	// Gateway return URLs are authorized by the callback token, not the session.
	router.GET("/payment-success/:donationId", rt.StripeSuccess)
	router.GET("/payment-cancel/:donationId", rt.PaymentCancel)
	router.GET("/paypal-payment-success/:donationId", rt.PayPalSuccess)
	router.GET("/paypal-payment-cancel/:donationId", rt.PaymentCancel)

	donor := router.Group("/", rt.requireLogin())
	{
		donor.GET("/profile", rt.Profile)
		donor.GET("/donate/:campaignId", rt.DonatePage)
		donor.POST("/donate/:campaignId", rt.Donate)
		donor.GET("/process-stripe-payment/:donationId", rt.ProcessStripePayment)
		donor.GET("/process-paypal-payment/:donationId", rt.ProcessPayPalPayment)
	}

	admin := router.Group("/admin", rt.requireAdmin())
	{
		admin.GET("", rt.AdminDashboard)
		admin.GET("/campaigns", rt.AdminCampaigns)
		admin.POST("/campaigns", rt.AdminCreateCampaign)
		admin.GET("/campaigns/new", rt.AdminNewCampaign)
		admin.POST("/campaigns/new", rt.AdminCreateCampaign)
		admin.POST("/campaigns/:id/toggle", rt.AdminToggleCampaign)
		admin.GET("/news", rt.AdminNews)
		admin.GET("/news/new", rt.AdminNewNews)
		admin.POST("/news/new", rt.AdminCreateNews)
		admin.GET("/payments", rt.AdminPayments)
		admin.GET("/payments/new", rt.AdminNewPaymentMethod)
		admin.POST("/payments/new", rt.AdminCreatePaymentMethod)
		admin.GET("/donations", rt.AdminDonations)
		admin.POST("/donations/:id/confirm", rt.AdminConfirmDonation)
		admin.GET("/donations/export", rt.AdminExportDonations)
	}

	router.NoRoute(rt.NotFound)
}

func (rt *Routes) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": rt.feed.ClientCount(),
		"time":    time.Now().Unix(),
	})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		return 1
	}
	return page
}
