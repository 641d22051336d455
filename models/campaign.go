package models

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campaign categories offered by the admin form.
var CampaignCategories = []string{"education", "medical", "disaster", "community", "environment", "other"}

// Campaign is a fundraising goal with a running total.
type Campaign struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Title         string          `gorm:"size:200;not null" json:"title"`
	Slug          string          `gorm:"size:220;uniqueIndex" json:"slug"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	GoalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"goal_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_amount"`
	ImageURL      string          `gorm:"size:300" json:"image_url"`
	Category      string          `gorm:"size:50;index" json:"category"`
	EndDate       *time.Time      `json:"end_date"`
	IsActive      bool            `gorm:"default:true;index" json:"is_active"`
	CreatedDate   time.Time       `gorm:"autoCreateTime" json:"created_date"`
	Donations     []Donation      `gorm:"foreignKey:CampaignID" json:"-"`
}

var hundred = decimal.NewFromInt(100)

// ProgressPercentage is min(current/goal*100, 100); 0 when the goal is not positive.
func (c Campaign) ProgressPercentage() decimal.Decimal {
	if !c.GoalAmount.IsPositive() {
		return decimal.Zero
	}
	pct := c.CurrentAmount.Div(c.GoalAmount).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// BeforeCreate derives the slug from the title when none was given and
// appends the first free numeric suffix when it is taken.
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	base := c.Slug
	if base == "" {
		base = slug.Make(c.Title)
	}
	if base == "" {
		base = "campaign"
	}

	db := tx.Session(&gorm.Session{NewDB: true})
	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := db.Model(&Campaign{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	c.Slug = candidate
	return nil
}
