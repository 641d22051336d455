package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{
		FullName: "Ada Donor",
		Email:    "Ada@Example.com ",
		Phone:    "555-0100",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = auth.Register(ctx, RegisterInput{FullName: "Someone Else", Email: "ada@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{FullName: "Ada Donor", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := auth.Authenticate(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Donor", user.FullName)

	_, err = auth.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")
	user := createUser(t, db, "ada@example.com")

	token, err := auth.IssueToken(user)
	require.NoError(t, err)

	id, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = NewAuthService(db, "other-secret").ParseToken(token)
	assert.Error(t, err)

	_, err = auth.ParseToken("garbage")
	assert.Error(t, err)
}

func TestProvisionAdmin(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")
	ctx := context.Background()

	_, _, err := auth.ProvisionAdmin(ctx, "admin@example.com", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	admin, created, err := auth.ProvisionAdmin(ctx, "admin@example.com", "long-enough-password", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "Admin User", admin.FullName)

	_, err = auth.Authenticate(ctx, "admin@example.com", "long-enough-password")
	require.NoError(t, err)

	donor := createUser(t, db, "donor@example.com")
	promoted, created, err := auth.ProvisionAdmin(ctx, "donor@example.com", "another-password", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, donor.ID, promoted.ID)

	reloaded, err := auth.UserByID(ctx, donor.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin)
	_, err = auth.Authenticate(ctx, "donor@example.com", "another-password")
	assert.NoError(t, err)
}
