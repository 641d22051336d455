package routes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/services"
	"github.com/handsup/donation-platform/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGateway struct {
	method    string
	createErr error
	verifyErr error

	mu       sync.Mutex
	sessions int
	verified []services.Confirmation
}

func (g *stubGateway) Method() string { return g.method }

func (g *stubGateway) CreateCheckout(_ context.Context, req services.CheckoutRequest) (*services.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.sessions++
	ref := fmt.Sprintf("%s_%d", g.method, g.sessions)
	return &services.CheckoutSession{Reference: ref, RedirectURL: "https://gateway.test/pay/" + ref}, nil
}

func (g *stubGateway) VerifyPayment(_ context.Context, c services.Confirmation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = append(g.verified, c)
	return g.verifyErr
}

func (g *stubGateway) confirmations() []services.Confirmation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]services.Confirmation(nil), g.verified...)
}

func (g *stubGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions
}

type testApp struct {
	db        *gorm.DB
	router    *gin.Engine
	auth      *services.AuthService
	catalog   *services.CatalogService
	donations *services.DonationService
	feed      *Feed
	card      *stubGateway
	paypal    *stubGateway
}

type appOption func(*utils.Config, *testApp)

func inProduction(cfg *utils.Config, _ *testApp) { cfg.Env = utils.EnvProduction }

func withoutPayPal(_ *utils.Config, app *testApp) { app.paypal = nil }

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := utils.InitDatabase(utils.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, true)
	require.NoError(t, err)
	require.NoError(t, utils.MigrateDatabase(db))

	cfg := &utils.Config{
		Env:       "development",
		Port:      5000,
		BaseURL:   "http://handsup.test",
		SecretKey: "test-secret",
	}

	app := &testApp{
		db:      db,
		auth:    services.NewAuthService(db, cfg.SecretKey),
		catalog: services.NewCatalogService(db),
		feed:    NewFeed(),
		card:    &stubGateway{method: models.MethodCard},
		paypal:  &stubGateway{method: models.MethodPayPal},
	}
	for _, opt := range opts {
		opt(cfg, app)
	}
	gateways := []services.Gateway{app.card}
	if app.paypal != nil {
		gateways = append(gateways, app.paypal)
	}
	app.donations = services.NewDonationService(db, cfg.BaseURL, gateways...)
	app.donations.SetNotifier(app.feed)

	ctx, cancel := context.WithCancel(context.Background())
	go app.feed.Run(ctx)
	t.Cleanup(func() {
		cancel()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	rt := NewRoutes(cfg, Services{
		Auth:      app.auth,
		Catalog:   app.catalog,
		Donations: app.donations,
		Admin:     services.NewAdminService(db),
	}, app.feed)
	app.router, err = NewRouter(rt)
	require.NoError(t, err)
	return app
}

func (a *testApp) user(t *testing.T, email string, admin bool) *models.User {
	t.Helper()
	u, err := a.auth.Register(context.Background(), services.RegisterInput{
		FullName: "Test " + strings.Split(email, "@")[0],
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	if admin {
		require.NoError(t, a.db.Model(u).Update("is_admin", true).Error)
		u.IsAdmin = true
	}
	return u
}

func (a *testApp) campaign(t *testing.T, title string) *models.Campaign {
	t.Helper()
	c, err := a.catalog.CreateCampaign(context.Background(), services.CampaignInput{
		Title:       title,
		Description: "Bring clean water to every village.",
		GoalAmount:  decimal.NewFromInt(1000),
		Category:    "community",
	})
	require.NoError(t, err)
	return c
}

func (a *testApp) total(t *testing.T, campaignID uint) string {
	t.Helper()
	var c models.Campaign
	require.NoError(t, a.db.First(&c, campaignID).Error)
	return c.CurrentAmount.StringFixed(2)
}

// do sends a request, form-encoded when form is non-nil, as user when non-nil.
func (a *testApp) do(t *testing.T, method, target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		token, err := a.auth.IssueToken(user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashes decodes the flash cookie set on a response.
func flashes(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var messages []string
	for _, c := range w.Result().Cookies() {
		if c.Name != flashCookie || c.Value == "" {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(c.Value)
		require.NoError(t, err)
		messages = nil
		require.NoError(t, json.Unmarshal(raw, &messages))
	}
	return messages
}

func lastDonation(t *testing.T, db *gorm.DB) models.Donation {
	t.Helper()
	var d models.Donation
	require.NoError(t, db.Order("id desc").First(&d).Error)
	return d
}
