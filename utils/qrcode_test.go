package utils

import (
	"testing"

	"github.com/handsup/donation-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentQRCode(t *testing.T) {
	for _, details := range []models.PaymentDetails{
		models.CryptoPayment("bc1qexampleaddress"),
		models.PayPalPayment("give@example.com"),
	} {
		png, err := PaymentQRCode(details)
		require.NoError(t, err, details.Kind())
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	}
}

func TestPaymentQRCodeWithoutPayload(t *testing.T) {
	bank := models.BankPayment(models.BankDetails{
		BankName:      "First Community Bank",
		AccountNumber: "000123456",
		AccountHolder: "HandsUp Foundation",
	})
	_, err := PaymentQRCode(bank)
	assert.ErrorIs(t, err, ErrNoQRPayload)

	_, err = PaymentQRCode(models.CryptoPayment("   "))
	assert.ErrorIs(t, err, ErrNoQRPayload)
}
