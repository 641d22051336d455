package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/handsup/donation-platform/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CampaignsPerPage = 9
	NewsPerPage      = 6
)

// MinGoalAmount is the smallest goal an admin may set.
var MinGoalAmount = decimal.NewFromInt(100)

type CampaignInput struct {
	Title       string
	Description string
	GoalAmount  decimal.Decimal
	Category    string
	ImageURL    string
	EndDate     *time.Time
}

type NewsInput struct {
	Title    string
	Content  string
	ImageURL string
}

// CatalogService serves campaigns, news and payment methods.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CatalogService) FeaturedCampaigns(ctx context.Context, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.db.WithContext(ctx).Where("is_active = ?", true).
		Order("created_date desc, id desc").Limit(limit).Find(&campaigns).Error
	return campaigns, err
}

// ListCampaigns pages through active campaigns, optionally in one category.
func (s *CatalogService) ListCampaigns(ctx context.Context, category string, page int) (Page[models.Campaign], error) {
	query := s.db.WithContext(ctx).Model(&models.Campaign{}).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	return findPage[models.Campaign](query, "created_date desc, id desc", page, CampaignsPerPage)
}

func (s *CatalogService) AllCampaigns(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.db.WithContext(ctx).Order("id desc").Find(&campaigns).Error
	return campaigns, err
}

// FindCampaign accepts a numeric id or a slug.
func (s *CatalogService) FindCampaign(ctx context.Context, key string) (*models.Campaign, error) {
	var campaign models.Campaign
	query := s.db.WithContext(ctx)
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", key)
	}
	if err := query.First(&campaign).Error; err != nil {
		return nil, notFound(err)
	}
	return &campaign, nil
}

// RecentDonations lists the latest confirmed, non-anonymous donations of a campaign.
func (s *CatalogService) RecentDonations(ctx context.Context, campaignID uint, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).Preload("User").
		Where("campaign_id = ? AND status = ? AND anonymous = ?", campaignID, models.StatusConfirmed, false).
		Order("donation_date desc, id desc").Limit(limit).Find(&donations).Error
	return donations, err
}

func (s *CatalogService) CreateCampaign(ctx context.Context, in CampaignInput) (*models.Campaign, error) {
	if in.GoalAmount.LessThan(MinGoalAmount) {
		return nil, fmt.Errorf("%w: goal amount must be at least %s", ErrInvalidInput, MinGoalAmount.String())
	}
	campaign := models.Campaign{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		GoalAmount:    in.GoalAmount.Round(2),
		CurrentAmount: decimal.Zero,
		Category:      in.Category,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		EndDate:       in.EndDate,
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// SetCampaignActive opens or closes a campaign for donations.
func (s *CatalogService) SetCampaignActive(ctx context.Context, id uint, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// mysql reports unchanged rows as unaffected
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CatalogService) LatestNews(ctx context.Context, limit int) ([]models.News, error) {
	var news []models.News
	err := s.db.WithContext(ctx).Where("is_published = ?", true).
		Order("published_date desc, id desc").Limit(limit).Find(&news).Error
	return news, err
}

func (s *CatalogService) ListNews(ctx context.Context, page int) (Page[models.News], error) {
	query := s.db.WithContext(ctx).Model(&models.News{}).Where("is_published = ?", true)
	return findPage[models.News](query, "published_date desc, id desc", page, NewsPerPage)
}

func (s *CatalogService) AllNews(ctx context.Context) ([]models.News, error) {
	var news []models.News
	err := s.db.WithContext(ctx).Order("published_date desc, id desc").Find(&news).Error
	return news, err
}

// FindNews returns a published article.
func (s *CatalogService) FindNews(ctx context.Context, id uint) (*models.News, error) {
	var article models.News
	if err := s.db.WithContext(ctx).Where("id = ? AND is_published = ?", id, true).First(&article).Error; err != nil {
		return nil, notFound(err)
	}
	return &article, nil
}

func (s *CatalogService) CreateNews(ctx context.Context, in NewsInput) (*models.News, error) {
	article := models.News{
		Title:       strings.TrimSpace(in.Title),
		Content:     strings.TrimSpace(in.Content),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsPublished: true,
	}
	if err := s.db.WithContext(ctx).Create(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// ActivePaymentMethods lists enabled methods; an empty methodType lists all of them.
func (s *CatalogService) ActivePaymentMethods(ctx context.Context, methodType string) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	query := s.db.WithContext(ctx).Where("is_active = ?", true)
	if methodType != "" {
		query = query.Where("method_type = ?", methodType)
	}
	err := query.Order("id asc").Find(&methods).Error
	return methods, err
}

func (s *CatalogService) AllPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.WithContext(ctx).Order("id asc").Find(&methods).Error
	return methods, err
}

func (s *CatalogService) FindPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := s.db.WithContext(ctx).First(&method, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &method, nil
}

func (s *CatalogService) CreatePaymentMethod(ctx context.Context, name string, details models.PaymentDetails) (*models.PaymentMethod, error) {
	method, err := models.NewPaymentMethod(name, details)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.db.WithContext(ctx).Create(method).Error; err != nil {
		return nil, err
	}
	return method, nil
}
