package services

import (
	"context"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/models"
	"github.com/adityaraj-spec/fullStack/pkg/utils"
)

// TokenPair is one minted access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionManager owns the credential/session lifecycle: password verification,
// token issuance, rotation, and revocation. One active refresh token per
// account; issuing or rotating invalidates the previous one.
type SessionManager struct {
	store UserStore
	codec *TokenCodec
}

func NewSessionManager(store UserStore, codec *TokenCodec) *SessionManager {
	return &SessionManager{store: store, codec: codec}
}

// Codec exposes the token codec for the auth middleware.
func (m *SessionManager) Codec() *TokenCodec {
	return m.codec
}

// Authenticate looks up the account by username and/or email and verifies the
// submitted password. Read-only; token issuance is a separate step.
func (m *SessionManager) Authenticate(ctx context.Context, q IdentifierQuery, password string) (*models.User, error) {
	user, err := m.store.FindByIdentifier(ctx, q)
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// IssueTokens mints a fresh pair and persists the refresh token on the
// account, replacing any prior session. The pair is only returned once the
// refresh token is durably stored; an un-persisted refresh token could never
// be validated later.
func (m *SessionManager) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := m.codec.SignAccess(user)
	if err != nil {
		return nil, apperr.Internal("sign access token", err)
	}
	refresh, err := m.codec.SignRefresh(user.ID.Hex())
	if err != nil {
		return nil, apperr.Internal("sign refresh token", err)
	}

	if err := m.store.SetRefreshToken(ctx, user.ID.Hex(), refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the stored
// value. A presented token must verify cryptographically AND byte-for-byte
// equal the value currently stored on the account; the rotation itself is a
// compare-and-swap so a concurrently superseded token loses cleanly.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (*TokenPair, *models.User, error) {
	if presented == "" {
		return nil, nil, apperr.ErrUnauthorized
	}

	claims, err := m.codec.VerifyRefresh(presented)
	if err != nil {
		return nil, nil, apperr.ErrInvalidToken
	}

	user, err := m.store.FindByID(ctx, claims.Subject)
	if err != nil {
		// A verified token naming a missing account is indistinguishable from
		// a forged one as far as the client is concerned.
		return nil, nil, apperr.ErrInvalidToken
	}

	if user.RefreshToken != presented {
		return nil, nil, apperr.ErrTokenReplay
	}

	access, err := m.codec.SignAccess(user)
	if err != nil {
		return nil, nil, apperr.Internal("sign access token", err)
	}
	refresh, err := m.codec.SignRefresh(user.ID.Hex())
	if err != nil {
		return nil, nil, apperr.Internal("sign refresh token", err)
	}

	swapped, err := m.store.RotateRefreshToken(ctx, user.ID.Hex(), presented, refresh)
	if err != nil {
		return nil, nil, err
	}
	if !swapped {
		// Lost the rotation race, or the stored value changed under us.
		return nil, nil, apperr.ErrTokenReplay
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Revoke clears the stored refresh token. Already-issued access tokens keep
// working until their own expiry; there is no server-side access denylist.
func (m *SessionManager) Revoke(ctx context.Context, userID string) error {
	return m.store.ClearRefreshToken(ctx, userID)
}

// ChangePassword re-verifies the old password and stores a new hash. The
// existing refresh token is left in place, so the current session survives a
// password change.
func (m *SessionManager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := utils.VerifyPassword(oldPassword, user.Password)
	if err != nil || !ok {
		return apperr.ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	return m.store.UpdatePassword(ctx, userID, hash)
}
