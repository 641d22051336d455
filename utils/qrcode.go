package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/handsup/donation-platform/models"
	"github.com/skip2/go-qrcode"
)

// QRCodeSize is the edge length of payment QR codes in pixels.
const QRCodeSize = 256

// ErrNoQRPayload means the payment method has nothing a phone could scan.
var ErrNoQRPayload = errors.New("payment method has no qr payload")

// PaymentQRCode renders the wallet address or PayPal email of a payment
// method as a PNG. Bank transfers have no payload.
func PaymentQRCode(details models.PaymentDetails) ([]byte, error) {
	payload, ok := details.QRPayload()
	payload = strings.TrimSpace(payload)
	if !ok || payload == "" {
		return nil, ErrNoQRPayload
	}

	// wallet addresses must survive a phone camera at an angle
	level := qrcode.Medium
	if details.Kind() == models.PaymentTypeCrypto {
		level = qrcode.High
	}

	code, err := qrcode.New(payload, level)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	png, err := code.PNG(QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
