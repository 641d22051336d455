package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/handsup/donation-platform/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedDonations(t *testing.T, f *donationFixture) {
	t.Helper()
	ctx := context.Background()
	for _, amount := range []string{"10.25", "20.50"} {
		d := f.create(t, amount, models.MethodBank)
		_, err := f.svc.ConfirmManual(ctx, d.ID)
		require.NoError(t, err)
	}
	f.create(t, "5", models.MethodCrypto)
}

func TestDashboardStats(t *testing.T) {
	f := newDonationFixture(t)
	seedDonations(t, f)
	admin := NewAdminService(f.db)

	stats, err := admin.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCampaigns)
	assert.Equal(t, int64(2), stats.ConfirmedDonations)
	assert.Equal(t, int64(1), stats.PendingDonations)
	assert.True(t, decimal.RequireFromString("30.75").Equal(stats.TotalRaised), "got %s", stats.TotalRaised)
	require.Len(t, stats.RecentDonations, 2)
	assert.Equal(t, f.campaign.Title, stats.RecentDonations[0].Campaign.Title)
}

func TestDashboardStatsEmpty(t *testing.T) {
	admin := NewAdminService(newTestDB(t))
	stats, err := admin.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TotalRaised.IsZero())
	assert.Empty(t, stats.RecentDonations)
}

func TestListDonationsByStatus(t *testing.T) {
	f := newDonationFixture(t)
	seedDonations(t, f)
	admin := NewAdminService(f.db)

	pending, err := admin.ListDonations(context.Background(), models.StatusPending, 1)
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "donor@example.com", pending.Items[0].User.Email)

	all, err := admin.ListDonations(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalRows)
}

func TestExportDonations(t *testing.T) {
	f := newDonationFixture(t)
	seedDonations(t, f)
	admin := NewAdminService(f.db)

	var buf bytes.Buffer
	require.NoError(t, admin.ExportDonations(context.Background(), &buf, models.StatusConfirmed))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Donations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Date", "Campaign", "Donor", "Email", "Amount", "Method", "Status", "Reference", "Message"}, rows[0])
	assert.Equal(t, f.campaign.Title, rows[1][2])
	assert.Equal(t, models.StatusConfirmed, rows[1][7])
}
