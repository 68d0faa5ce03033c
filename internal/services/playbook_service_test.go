package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
)

func TestPlaybookCRUDAndStats(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")

	orb, err := e.playbooks.Create(ctx, u.ID, PlaybookInput{Name: "ORB", Setup: "first 5m range"})
	require.NoError(t, err)
	fade, err := e.playbooks.Create(ctx, u.ID, PlaybookInput{Name: "Fade"})
	require.NoError(t, err)
	_, err = e.playbooks.Create(ctx, u.ID, PlaybookInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err := e.playbooks.Update(ctx, u.ID, orb.ID, PlaybookPatch{ExitRules: ptr("target 2R")})
	require.NoError(t, err)
	assert.Equal(t, "ORB", updated.Name)
	assert.Equal(t, "first 5m range", updated.Setup)
	assert.Equal(t, "target 2R", updated.ExitRules)

	for _, in := range []TradeInput{
		{Symbol: "SPY", TradeType: "buy", Quantity: 10, EntryPrice: 100, ExitPrice: ptr(103.0), Playbook: orb.ID},
		{Symbol: "SPY", TradeType: "buy", Quantity: 10, EntryPrice: 100, ExitPrice: ptr(99.0), Playbook: orb.ID},
		{Symbol: "QQQ", TradeType: "buy", Quantity: 1, EntryPrice: 100, Playbook: orb.ID},
	} {
		_, err := e.trades.Create(ctx, u.ID, in)
		require.NoError(t, err)
	}

	all, err := e.playbooks.Stats(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ORB", all[0].Name)
	assert.Equal(t, 3, all[0].Trades)
	assert.Equal(t, 2, all[0].ClosedTrades)
	assert.Equal(t, 50.0, all[0].WinRate)
	assert.Equal(t, 20.0, all[0].NetPL)
	require.NotNil(t, all[0].ProfitFactor)
	assert.InDelta(t, 3.0, *all[0].ProfitFactor, 1e-9)
	assert.Equal(t, "Fade", all[1].Name)
	assert.Equal(t, fade.ID, all[1].PlaybookID)
	assert.Equal(t, 0, all[1].Trades)

	one, err := e.playbooks.StatsFor(ctx, u.ID, orb.ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].PlaybookStats, one.PlaybookStats)

	require.NoError(t, e.playbooks.Delete(ctx, u.ID, fade.ID))
	assert.ErrorIs(t, e.playbooks.Delete(ctx, u.ID, fade.ID), apperrors.ErrNotFound)
	_, err = e.playbooks.StatsFor(ctx, u.ID, fade.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
