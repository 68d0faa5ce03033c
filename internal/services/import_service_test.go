package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

func importPayload() ImportPayload {
	entry := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	exit := 120.0
	return ImportPayload{
		Journals: []models.Journal{{
			ID:        "local-journal",
			Name:      "Browser journal",
			IsDefault: true,
			Trades: []models.Trade{
				{ID: "local-trade", Symbol: "tsla", TradeType: "buy", Quantity: 1, EntryPrice: 100, ExitPrice: &exit, EntryDate: entry},
				{Symbol: "amd", TradeType: "sell", Quantity: 3, EntryPrice: 50, EntryDate: entry, Notes: "no id"},
			},
		}},
		Playbooks: []models.Playbook{{ID: "local-pb", Name: "Breakout"}, {Name: "Pullback"}},
	}
}

func TestImport(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")

	res, err := e.imports.Import(ctx, u.ID, importPayload())
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Journals: 1, Trades: 2, Playbooks: 2}, res)

	j, err := e.journals.Get(ctx, u.ID, "local-journal")
	require.NoError(t, err)
	assert.Equal(t, u.ID, j.UserID)
	assert.False(t, j.IsDefault, "the account keeps its own default journal")
	assert.Equal(t, "USD", j.Settings.Currency)
	require.Len(t, j.Trades, 2)

	tr, err := e.trades.Get(ctx, u.ID, "local-trade")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", tr.Symbol)
	assert.Equal(t, "local-journal", tr.JournalID)
	assert.NotNil(t, tr.ExitDate)

	// importing again updates in place
	again := importPayload()
	again.Journals[0].Name = "Renamed"
	again.Journals[0].Trades = again.Journals[0].Trades[:1]
	again.Playbooks = again.Playbooks[:1]
	_, err = e.imports.Import(ctx, u.ID, again)
	require.NoError(t, err)

	journals, err := e.journals.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, journals, 2)
	trades, err := e.trades.List(ctx, u.ID, store.TradeFilter{})
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	j, err = e.journals.Get(ctx, u.ID, "local-journal")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", j.Name)
}

func TestImportIDsOfOtherUsersAreReplaced(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	first := e.signup(t, "first@example.com")
	second := e.signup(t, "second@example.com")

	_, err := e.imports.Import(ctx, first.ID, importPayload())
	require.NoError(t, err)
	_, err = e.imports.Import(ctx, second.ID, importPayload())
	require.NoError(t, err)

	mine, err := e.journals.Get(ctx, first.ID, "local-journal")
	require.NoError(t, err)
	assert.Equal(t, "Browser journal", mine.Name)

	theirs, err := e.journals.List(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 2)
	for _, j := range theirs {
		assert.NotEqual(t, "local-journal", j.ID)
	}
}

func TestImportRejectsInvalidPayloadAtomically(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")

	p := importPayload()
	p.Journals[0].Trades[1].Quantity = 0
	_, err := e.imports.Import(ctx, u.ID, p)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "journals[0].trades[1]")

	p = importPayload()
	p.Playbooks[1].Name = ""
	_, err = e.imports.Import(ctx, u.ID, p)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	journals, err := e.journals.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, journals, 1, "nothing was written")
	playbooks, err := e.playbooks.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, playbooks)
}
