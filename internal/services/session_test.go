package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/models"
	"github.com/adityaraj-spec/fullStack/pkg/utils"
)

// fakeUserStore is an in-memory UserStore. RotateRefreshToken performs the
// same compare-and-swap the mongo conditional update does, under one mutex,
// so the concurrency tests exercise the real rotation contract.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) FindByIdentifier(_ context.Context, q IdentifierQuery) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		switch q.Kind {
		case ByUsername:
			if u.Username == q.Username {
				return copyUser(u), nil
			}
		case ByEmail:
			if u.Email == q.Email {
				return copyUser(u), nil
			}
		default:
			if u.Username == q.Username || u.Email == q.Email {
				return copyUser(u), nil
			}
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, apperr.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID.Hex()] = copyUser(user)
	return user, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id, fullName, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if email != "" {
		u.Email = email
	}
	return copyUser(u), nil
}

func (s *fakeUserStore) UpdateImage(_ context.Context, id, field, url string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if field == "avatar" {
		u.Avatar = url
	} else {
		u.CoverImage = url
	}
	return copyUser(u), nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (s *fakeUserStore) RotateRefreshToken(_ context.Context, id, expectedOld, newToken string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, apperr.ErrNotFound
	}
	if u.RefreshToken != expectedOld {
		return false, nil
	}
	u.RefreshToken = newToken
	return true, nil
}

func (s *fakeUserStore) ClearRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.RefreshToken = ""
	return nil
}

func (s *fakeUserStore) storedRefreshToken(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].RefreshToken
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func newTestSession(t *testing.T) (*SessionManager, *fakeUserStore, *models.User) {
	t.Helper()

	store := newFakeUserStore()
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	m := NewSessionManager(store, codec)

	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)

	user, err := store.Create(context.Background(), &models.User{
		FullName: "Test User",
		Username: "testuser",
		Email:    "test@example.com",
		Avatar:   "https://images.example.com/avatar.png",
		Password: hash,
	})
	require.NoError(t, err)

	return m, store, user
}

func TestAuthenticate_EitherIdentifierAlone(t *testing.T) {
	t.Parallel()

	m, _, user := newTestSession(t)
	ctx := context.Background()

	for name, input := range map[string][2]string{
		"username only": {"testuser", ""},
		"email only":    {"", "test@example.com"},
		"both":          {"testuser", "test@example.com"},
		"mixed case":    {"TestUser", ""},
	} {
		q, ok := IdentifierFrom(input[0], input[1])
		require.True(t, ok, name)

		got, err := m.Authenticate(ctx, q, "correct horse")
		require.NoError(t, err, name)
		require.Equal(t, user.ID, got.ID, name)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestSession(t)
	q, _ := IdentifierFrom("testuser", "")

	_, err := m.Authenticate(context.Background(), q, "wrong")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	require.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestSession(t)
	q, _ := IdentifierFrom("nobody", "")

	_, err := m.Authenticate(context.Background(), q, "correct horse")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIssueTokens_PersistsExactRefreshToken(t *testing.T) {
	t.Parallel()

	m, store, user := newTestSession(t)

	pair, err := m.IssueTokens(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Equal(t, pair.RefreshToken, store.storedRefreshToken(user.ID.Hex()))
}

func TestRefresh_RotatesStoredToken(t *testing.T) {
	t.Parallel()

	m, store, user := newTestSession(t)
	ctx := context.Background()

	pair, err := m.IssueTokens(ctx, user)
	require.NoError(t, err)

	next, got, err := m.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.Equal(t, next.RefreshToken, store.storedRefreshToken(user.ID.Hex()))
}

func TestRefresh_SupersededTokenIsRejected(t *testing.T) {
	t.Parallel()

	m, _, user := newTestSession(t)
	ctx := context.Background()

	first, err := m.IssueTokens(ctx, user)
	require.NoError(t, err)
	_, err = m.IssueTokens(ctx, user)
	require.NoError(t, err)

	// The first token still verifies cryptographically but no longer matches
	// the stored value.
	_, _, err = m.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrTokenReplay)
}

func TestRefresh_MissingAndInvalidTokens(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestSession(t)
	ctx := context.Background()

	_, _, err := m.Refresh(ctx, "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = m.Refresh(ctx, "not.a.jwt")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRefresh_TokenForDeletedAccount(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	m := NewSessionManager(store, codec)

	// Verifies fine, but no such account exists.
	orphan, err := codec.SignRefresh(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	_, _, err = m.Refresh(context.Background(), orphan)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRefresh_ConcurrentCallsOneWinner(t *testing.T) {
	t.Parallel()

	m, _, user := newTestSession(t)
	ctx := context.Background()

	pair, err := m.IssueTokens(ctx, user)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = m.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, apperr.ErrTokenReplay)
		}
	}
	require.Equal(t, 1, winners, "exactly one refresh must win the rotation")
}

func TestRevoke_ThenRefreshFails(t *testing.T) {
	t.Parallel()

	m, store, user := newTestSession(t)
	ctx := context.Background()

	pair, err := m.IssueTokens(ctx, user)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, user.ID.Hex()))
	require.Empty(t, store.storedRefreshToken(user.ID.Hex()))

	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrTokenReplay)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	m, _, user := newTestSession(t)
	ctx := context.Background()

	err := m.ChangePassword(ctx, user.ID.Hex(), "wrong", "new password 1")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, m.ChangePassword(ctx, user.ID.Hex(), "correct horse", "new password 1"))

	q, _ := IdentifierFrom(user.Username, "")
	_, err = m.Authenticate(ctx, q, "correct horse")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = m.Authenticate(ctx, q, "new password 1")
	require.NoError(t, err)
}

func TestChangePassword_KeepsSessionAlive(t *testing.T) {
	t.Parallel()

	m, _, user := newTestSession(t)
	ctx := context.Background()

	pair, err := m.IssueTokens(ctx, user)
	require.NoError(t, err)

	require.NoError(t, m.ChangePassword(ctx, user.ID.Hex(), "correct horse", "new password 1"))

	// Changing the password deliberately does not rotate or revoke the
	// existing refresh token.
	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestCreate_ConcurrentDuplicatesOneAccount(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Create(context.Background(), &models.User{
				Username: "racer",
				Email:    "racer@example.com",
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			require.ErrorIs(t, err, apperr.ErrConflict)
		}
	}
	require.Equal(t, 1, created, "racing registrations must create exactly one account")
	require.Len(t, store.users, 1)
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	t.Parallel()

	_, store, _ := newTestSession(t)

	_, err := store.Create(context.Background(), &models.User{
		Username: "testuser",
		Email:    "other@example.com",
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = store.Create(context.Background(), &models.User{
		Username: "other",
		Email:    "test@example.com",
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}
