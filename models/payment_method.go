package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Manual payment method types configured by admins.
const (
	PaymentTypeCrypto = "crypto"
	PaymentTypeBank   = "bank"
	PaymentTypePayPal = "paypal"
)

var ErrInvalidPaymentDetails = errors.New("invalid payment method details")

type CryptoDetails struct {
	WalletAddress string `json:"wallet_address"`
}

type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	AccountHolder string `json:"account_holder"`
}

type PayPalDetails struct {
	Email string `json:"email"`
}

// PaymentDetails is a tagged union: exactly one variant is set and it must
// match the owning PaymentMethod's type.
type PaymentDetails struct {
	Crypto *CryptoDetails `json:"crypto,omitempty"`
	Bank   *BankDetails   `json:"bank,omitempty"`
	PayPal *PayPalDetails `json:"paypal,omitempty"`
}

func CryptoPayment(wallet string) PaymentDetails {
	return PaymentDetails{Crypto: &CryptoDetails{WalletAddress: strings.TrimSpace(wallet)}}
}

func BankPayment(b BankDetails) PaymentDetails {
	return PaymentDetails{Bank: &b}
}

func PayPalPayment(email string) PaymentDetails {
	return PaymentDetails{PayPal: &PayPalDetails{Email: strings.TrimSpace(email)}}
}

// Kind returns the type tag of the populated variant, or "" when none or several are set.
func (d PaymentDetails) Kind() string {
	kind, n := "", 0
	if d.Crypto != nil {
		kind, n = PaymentTypeCrypto, n+1
	}
	if d.Bank != nil {
		kind, n = PaymentTypeBank, n+1
	}
	if d.PayPal != nil {
		kind, n = PaymentTypePayPal, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// Validate checks the required fields of the populated variant.
func (d PaymentDetails) Validate() error {
	switch d.Kind() {
	case PaymentTypeCrypto:
		if d.Crypto.WalletAddress == "" {
			return fmt.Errorf("%w: wallet address is required", ErrInvalidPaymentDetails)
		}
	case PaymentTypeBank:
		b := d.Bank
		if b.BankName == "" || b.AccountNumber == "" || b.AccountHolder == "" {
			return fmt.Errorf("%w: bank name, account number and account holder are required", ErrInvalidPaymentDetails)
		}
	case PaymentTypePayPal:
		if d.PayPal.Email == "" {
			return fmt.Errorf("%w: paypal email is required", ErrInvalidPaymentDetails)
		}
	default:
		return fmt.Errorf("%w: exactly one detail variant must be set", ErrInvalidPaymentDetails)
	}
	return nil
}

// QRPayload is the text a donor scans: the wallet address or the PayPal email.
func (d PaymentDetails) QRPayload() (string, bool) {
	switch {
	case d.Crypto != nil && d.Crypto.WalletAddress != "":
		return d.Crypto.WalletAddress, true
	case d.PayPal != nil && d.PayPal.Email != "":
		return d.PayPal.Email, true
	}
	return "", false
}

// PaymentMethod is an admin-managed destination for manual donations.
type PaymentMethod struct {
	ID          uint                               `gorm:"primaryKey" json:"id"`
	MethodType  string                             `gorm:"size:20;index;not null" json:"method_type"`
	Name        string                             `gorm:"size:100;not null" json:"name"`
	Details     datatypes.JSONType[PaymentDetails] `json:"details"`
	IsActive    bool                               `gorm:"default:true;index" json:"is_active"`
	CreatedDate time.Time                          `gorm:"autoCreateTime" json:"created_date"`
}

// NewPaymentMethod builds an active method whose type is taken from the details variant.
func NewPaymentMethod(name string, details PaymentDetails) (*PaymentMethod, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPaymentDetails)
	}
	return &PaymentMethod{
		MethodType: details.Kind(),
		Name:       name,
		Details:    datatypes.NewJSONType(details),
		IsActive:   true,
	}, nil
}

// PaymentDetails returns the decoded detail union.
func (p PaymentMethod) PaymentDetails() PaymentDetails {
	return p.Details.Data()
}
