package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

func TestSignupFirstUserIsAdmin(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()

	first, err := e.auth.Signup(ctx, Credentials{Email: "  Admin@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", first.Email)
	assert.True(t, first.IsAdmin)
	assert.True(t, first.IsApproved)
	assert.NotEqual(t, "password1", first.PasswordHash)

	journals, err := e.journals.List(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, journals, 1)
	assert.Equal(t, "Main Journal", journals[0].Name)
	assert.True(t, journals[0].IsDefault)
	assert.Equal(t, "USD", journals[0].Settings.Currency)

	second, err := e.auth.Signup(ctx, Credentials{Email: "member@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)
	assert.False(t, second.IsApproved)

	_, err = e.auth.Signup(ctx, Credentials{Email: "ADMIN@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

// journalFailStore fails every journal write.
type journalFailStore struct {
	store.Store
}

func (journalFailStore) CreateJournal(context.Context, *models.Journal) error {
	return errors.New("disk full")
}

func TestSignupRollsBackWithoutDefaultJournal(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	broken := NewAuthService(journalFailStore{e.store}, []byte("test-secret"), time.Hour, zap.NewNop())

	_, err := broken.Signup(ctx, Credentials{Email: "retry@example.com", Password: "password1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = e.store.GetUserByEmail(ctx, "retry@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "the half-created account was removed")

	u, err := e.auth.Signup(ctx, Credentials{Email: "retry@example.com", Password: "password1"})
	require.NoError(t, err, "a retry is not rejected as a duplicate")
	assert.True(t, u.IsAdmin, "the retry is still the first account")
	journals, err := e.journals.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, journals, 1)
}

func TestSignupValidation(t *testing.T) {
	e := newEnv(t, "")
	cases := map[string]Credentials{
		"bad email":      {Email: "not-an-email", Password: "password1"},
		"short password": {Email: "a@example.com", Password: "abc"},
		"missing":        {},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.auth.Signup(context.Background(), c)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	admin := e.signup(t, "admin@example.com")
	_, err := e.auth.Signup(ctx, Credentials{Email: "pending@example.com", Password: "password1"})
	require.NoError(t, err)

	u, err := e.auth.Login(ctx, Credentials{Email: "ADMIN@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, u.ID)
	require.NotNil(t, u.LastLogin)

	stored, err := e.users.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, err = e.auth.Login(ctx, Credentials{Email: "admin@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = e.auth.Login(ctx, Credentials{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = e.auth.Login(ctx, Credentials{Email: "pending@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = e.auth.Login(ctx, Credentials{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoginUpgradesLegacyPassword(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	legacy := &models.User{
		ID:           id.New(),
		Email:        "old@example.com",
		PasswordHash: base64.StdEncoding.EncodeToString([]byte("hunter22")),
		IsApproved:   true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, e.store.CreateUser(ctx, legacy))

	_, err := e.auth.Login(ctx, Credentials{Email: "old@example.com", Password: "hunter22"})
	require.NoError(t, err)

	stored, err := e.users.Get(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "$2a$")

	_, err = e.auth.Login(ctx, Credentials{Email: "old@example.com", Password: "hunter22"})
	assert.NoError(t, err, "the upgraded hash still accepts the password")
}

func TestSessionTokens(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "admin@example.com")

	token, err := e.auth.IssueToken(u)
	require.NoError(t, err)

	got, err := e.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = e.auth.Authenticate(ctx, token+"x")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = e.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other := NewAuthService(e.store, []byte("another-secret"), time.Hour, zap.NewNop())
	foreign, err := other.IssueToken(u)
	require.NoError(t, err)
	_, err = e.auth.ParseToken(foreign)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	expired := NewAuthService(e.store, []byte("test-secret"), -time.Minute, zap.NewNop())
	old, err := expired.IssueToken(u)
	require.NoError(t, err)
	_, err = e.auth.ParseToken(old)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	ghost := &models.User{ID: id.New()}
	ghostToken, err := e.auth.IssueToken(ghost)
	require.NoError(t, err)
	_, err = e.auth.Authenticate(ctx, ghostToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
