package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.InitDatabase(utils.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, true)
	require.NoError(t, err)
	require.NoError(t, utils.MigrateDatabase(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hashed, err := HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{Email: email, FullName: "Test Donor", PasswordHash: hashed}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createCampaign(t *testing.T, db *gorm.DB, title string, goal int64) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		Title:       title,
		Description: "A campaign used in tests.",
		GoalAmount:  decimal.NewFromInt(goal),
		Category:    "community",
		IsActive:    true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func campaignTotal(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var c models.Campaign
	require.NoError(t, db.First(&c, id).Error)
	return c.CurrentAmount
}

// fakeGateway records calls and fails on demand.
type fakeGateway struct {
	method    string
	createErr error
	verifyErr error

	mu       sync.Mutex
	sessions int
	issued   map[string]uint
	requests []CheckoutRequest
	verified []Confirmation
}

func (g *fakeGateway) Method() string { return g.method }

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.sessions++
	ref := fmt.Sprintf("%s_%d", g.method, g.sessions)
	if g.issued == nil {
		g.issued = make(map[string]uint)
	}
	g.issued[ref] = req.DonationID
	return &CheckoutSession{Reference: ref, RedirectURL: "https://gateway.test/pay/" + ref}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, c Confirmation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified = append(g.verified, c)
	if g.verifyErr != nil {
		return g.verifyErr
	}
	donationID, ok := g.issued[c.Reference]
	if !ok {
		return fmt.Errorf("unknown reference %q", c.Reference)
	}
	if donationID != c.DonationID {
		return fmt.Errorf("reference %s belongs to donation %d", c.Reference, donationID)
	}
	return nil
}

func (g *fakeGateway) lastRequest() CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type recordingNotifier struct {
	mu        sync.Mutex
	donations []models.Donation
}

func (n *recordingNotifier) DonationConfirmed(d models.Donation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.donations = append(n.donations, d)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.donations)
}
