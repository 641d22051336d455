package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation status values. A cancelled donation is deleted, so there is no third status.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Payment method tags accepted on a donation.
const (
	MethodCard   = "card"
	MethodPayPal = "paypal"
	MethodCrypto = "crypto"
	MethodBank   = "bank"
)

// DonationMethods lists every method a donor may pick.
var DonationMethods = []string{MethodCard, MethodPayPal, MethodCrypto, MethodBank}

// Donation is a single contribution with its payment lifecycle.
type Donation struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod    string          `gorm:"size:20;index" json:"payment_method"`     // card, paypal, crypto, bank
	PaymentReference string          `gorm:"size:200;index" json:"payment_reference"` // stripe session id / paypal order id
	Status           string          `gorm:"size:20;index;default:pending" json:"status"`
	CallbackToken    string          `gorm:"size:64" json:"-"`
	Anonymous        bool            `gorm:"default:false" json:"anonymous"`
	Message          string          `gorm:"type:text" json:"message"`
	DonationDate     time.Time       `gorm:"autoCreateTime;index" json:"donation_date"`
	ConfirmedAt      *time.Time      `json:"confirmed_at"`
	UserID           uint            `gorm:"index;not null" json:"user_id"`
	User             User            `gorm:"foreignKey:UserID" json:"-"`
	CampaignID       uint            `gorm:"index;not null" json:"campaign_id"`
	Campaign         Campaign        `gorm:"foreignKey:CampaignID" json:"-"`
}

// IsConfirmed reports whether the gateway or an admin has confirmed the payment.
func (d Donation) IsConfirmed() bool {
	return d.Status == StatusConfirmed
}

// UsesGateway reports whether the donation is collected through a hosted checkout.
func (d Donation) UsesGateway() bool {
	return d.PaymentMethod == MethodCard || d.PaymentMethod == MethodPayPal
}

// DonorName hides the donor for anonymous donations.
func (d Donation) DonorName() string {
	if d.Anonymous || d.User.FullName == "" {
		return "Anonymous"
	}
	return d.User.FullName
}
