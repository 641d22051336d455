package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/handsup/donation-platform/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionTTL is how long a login cookie stays valid.
const SessionTTL = 24 * time.Hour

type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// SessionClaims is the signed payload of the session cookie.
type SessionClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService struct {
	db     *gorm.DB
	secret []byte
}

func NewAuthService(db *gorm.DB, secret string) *AuthService {
	return &AuthService{db: db, secret: []byte(secret)}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a non-admin account. A second account for the same email is rejected.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks an email/password pair.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// IssueToken signs a session for u. The admin flag is re-read from the
// database on every request, so it is not part of the claims.
func (s *AuthService) IssueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken returns the user id of a valid session token.
func (s *AuthService) ParseToken(tokenStr string) (uint, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, errors.New("session without user")
	}
	return claims.UserID, nil
}

// ProvisionAdmin creates the admin account or promotes and resets an existing
// one. Only cmd/provision calls it.
func (s *AuthService) ProvisionAdmin(ctx context.Context, email, password, fullName string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return nil, false, fmt.Errorf("%w: admin needs an email and a password of at least 8 characters", ErrInvalidInput)
	}
	if fullName == "" {
		fullName = "Admin User"
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	var u models.User
	err = s.db.WithContext(ctx).First(&u, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = models.User{Email: email, FullName: fullName, PasswordHash: hashed, IsAdmin: true}
		if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, false, err
		}
		return &u, true, nil
	case err != nil:
		return nil, false, err
	}

	if err := s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"is_admin":      true,
		"password_hash": hashed,
	}).Error; err != nil {
		return nil, false, err
	}
	return &u, false, nil
}
