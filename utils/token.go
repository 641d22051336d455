package utils

import (
	"crypto/subtle"

	"github.com/google/uuid"
)

// NewCallbackToken issues the correlation token a gateway callback must echo back.
func NewCallbackToken() string {
	return uuid.NewString()
}

// TokensEqual compares tokens in constant time.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewConnID names a websocket connection in logs.
func NewConnID() string {
	return uuid.NewString()[:8]
}
