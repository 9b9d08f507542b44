package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "chandler",
		Email:    "chandler@example.com",
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := testUser()

	access, err := codec.SignAccess(user)
	require.NoError(t, err)

	claims, err := codec.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, user.ID.Hex(), claims.Subject)
	require.Equal(t, user.Username, claims.Username)
	require.Equal(t, user.Email, claims.Email)
	require.NotEmpty(t, claims.ID, "jti should be set")

	refresh, err := codec.SignRefresh(user.ID.Hex())
	require.NoError(t, err)

	rc, err := codec.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, user.ID.Hex(), rc.Subject)
}

func TestTokenCodec_ZeroTTLExpiresImmediately(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", 0, 0)
	user := testUser()

	access, err := codec.SignAccess(user)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = codec.VerifyAccess(access)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenCodec_KindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := testUser()

	access, err := codec.SignAccess(user)
	require.NoError(t, err)
	refresh, err := codec.SignRefresh(user.ID.Hex())
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	other := NewTokenCodec("different", "different", time.Hour, 24*time.Hour)

	access, err := codec.SignAccess(testUser())
	require.NoError(t, err)

	_, err = other.VerifyAccess(access)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		_, err := codec.VerifyAccess(tok)
		require.ErrorIs(t, err, apperr.ErrInvalidToken)
	}
}
