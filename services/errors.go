package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAmountTooLow       = errors.New("donation amount is below the minimum")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrCampaignClosed     = errors.New("campaign is not accepting donations")
	ErrInvalidToken       = errors.New("callback token does not match")
	ErrAlreadyConfirmed   = errors.New("donation is already confirmed")
	ErrGateway            = errors.New("payment gateway error")
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)
