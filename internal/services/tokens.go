package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/models"
)

// TokenClaims are the JWT claims carried by both token kinds. Access tokens
// additionally embed username and email so the frontend can render without a
// profile fetch; refresh tokens carry only the subject.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TokenCodec signs and verifies the access/refresh token pair. The two kinds
// use independent HS256 secrets, so an access token can never pass refresh
// verification or vice versa.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// SignAccess mints a short-lived access token with identity claims.
func (c *TokenCodec) SignAccess(user *models.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
		Username: user.Username,
		Email:    user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// SignRefresh mints a long-lived refresh token carrying only the account id.
func (c *TokenCodec) SignRefresh(userID string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

// VerifyAccess validates signature and expiry of an access token.
func (c *TokenCodec) VerifyAccess(token string) (*TokenClaims, error) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefresh validates signature and expiry of a refresh token.
func (c *TokenCodec) VerifyRefresh(token string) (*TokenClaims, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *TokenCodec) verify(token string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		// Malformed, expired, or signed with the wrong key all collapse into
		// one taxonomy entry; the distinction must not leak to clients.
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}
