package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/handsup/donation-platform/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const DonationsPerAdminPage = 25

// DashboardStats is the summary shown on the admin landing page.
type DashboardStats struct {
	TotalCampaigns     int64
	ConfirmedDonations int64
	PendingDonations   int64
	TotalRaised        decimal.Decimal
	RecentDonations    []models.Donation
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{TotalRaised: decimal.Zero}

	if err := db.Model(&models.Campaign{}).Count(&stats.TotalCampaigns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Donation{}).Where("status = ?", models.StatusConfirmed).
		Count(&stats.ConfirmedDonations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Donation{}).Where("status = ?", models.StatusPending).
		Count(&stats.PendingDonations).Error; err != nil {
		return nil, err
	}

	// SUM comes back as text on sqlite and numeric elsewhere; scan as string.
	var total string
	if err := db.Model(&models.Donation{}).Where("status = ?", models.StatusConfirmed).
		Select("CAST(COALESCE(SUM(amount), 0) AS CHAR(32))").Scan(&total).Error; err != nil {
		return nil, err
	}
	if total = strings.TrimSpace(total); total != "" {
		raised, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("parse total raised %q: %w", total, err)
		}
		stats.TotalRaised = raised.Round(2)
	}

	if err := db.Preload("User").Preload("Campaign").
		Where("status = ?", models.StatusConfirmed).
		Order("confirmed_at desc, id desc").Limit(5).
		Find(&stats.RecentDonations).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ListDonations pages through all donations, optionally filtered by status.
func (s *AdminService) ListDonations(ctx context.Context, status string, page int) (Page[models.Donation], error) {
	query := s.db.WithContext(ctx).Model(&models.Donation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return findPage[models.Donation](query, "donation_date desc, id desc", page, DonationsPerAdminPage, "User", "Campaign")
}

// ExportDonations writes every donation matching status as an XLSX workbook.
func (s *AdminService) ExportDonations(ctx context.Context, w io.Writer, status string) error {
	var donations []models.Donation
	query := s.db.WithContext(ctx).Preload("User").Preload("Campaign")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("donation_date desc, id desc").Find(&donations).Error; err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Donations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := []string{"ID", "Date", "Campaign", "Donor", "Email", "Amount", "Method", "Status", "Reference", "Message"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, d := range donations {
		row := i + 2
		amount, _ := d.Amount.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), d.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), d.DonationDate.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), d.Campaign.Title)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), d.User.FullName)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), d.User.Email)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), amount)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), d.PaymentMethod)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), d.Status)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), d.PaymentReference)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), d.Message)
	}

	return f.Write(w)
}
