package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/store"
)

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	e.signup(t, "taken@example.com")

	_, err := e.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Password: ptr("new-password")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = e.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Password: ptr("new-password"), CurrentPassword: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = e.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: ptr("taken@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = e.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: ptr("not-an-email")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err := e.users.UpdateProfile(ctx, u.ID, ProfileUpdate{
		Email:           ptr("Renamed@Example.com"),
		Password:        ptr("new-password"),
		CurrentPassword: "password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", updated.Email)

	_, err = e.auth.Login(ctx, Credentials{Email: "renamed@example.com", Password: "new-password"})
	assert.NoError(t, err)
	_, err = e.auth.Login(ctx, Credentials{Email: "renamed@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAdminOperations(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	admin := e.signup(t, "admin@example.com")
	member, err := e.auth.Signup(ctx, Credentials{Email: "member@example.com", Password: "password1"})
	require.NoError(t, err)

	o, err := e.users.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, o.Users)
	assert.Equal(t, 1, o.PendingUsers)
	assert.Equal(t, 2, o.Journals)

	approved, err := e.users.Approve(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	_, err = e.users.SetAdmin(ctx, admin.ID, admin.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	promoted, err := e.users.SetAdmin(ctx, admin.ID, member.ID, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
	demoted, err := e.users.SetAdmin(ctx, admin.ID, member.ID, false)
	require.NoError(t, err)
	assert.False(t, demoted.IsAdmin)

	assert.ErrorIs(t, e.users.Delete(ctx, admin.ID, admin.ID), apperrors.ErrForbidden)

	_, err = e.trades.Create(ctx, member.ID, TradeInput{Symbol: "spy", TradeType: "buy", Quantity: 1, EntryPrice: 400})
	require.NoError(t, err)

	require.NoError(t, e.users.Delete(ctx, admin.ID, member.ID))
	assert.ErrorIs(t, e.users.Delete(ctx, admin.ID, member.ID), apperrors.ErrNotFound)

	trades, err := e.trades.List(ctx, member.ID, store.TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, trades)

	users, err := e.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)

	_, err = e.users.Approve(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
