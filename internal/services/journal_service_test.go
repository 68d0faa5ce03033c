package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
)

func TestJournalCreateFromTemplate(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")

	tpl, err := e.journals.Create(ctx, u.ID, JournalInput{
		Name:        "Template",
		Description: "futures setup",
		Icon:        "chart",
		Color:       "#00ff00",
		Settings:    &models.JournalSettings{Currency: "eur", InitialCapital: 5000, RiskPercent: 2},
		IsTemplate:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", tpl.Settings.Currency)
	assert.False(t, tpl.IsDefault, "the signup journal stays default")

	j, err := e.journals.Create(ctx, u.ID, JournalInput{Name: "From template", Color: "#ff0000", TemplateID: tpl.ID})
	require.NoError(t, err)
	assert.Equal(t, "futures setup", j.Description)
	assert.Equal(t, "chart", j.Icon)
	assert.Equal(t, "#ff0000", j.Color, "provided fields win over the template")
	assert.Equal(t, 5000.0, j.Settings.InitialCapital)
	assert.False(t, j.IsTemplate)

	plain, err := e.journals.Create(ctx, u.ID, JournalInput{Name: "Plain"})
	require.NoError(t, err)
	assert.Equal(t, "USD", plain.Settings.Currency)

	_, err = e.journals.Create(ctx, u.ID, JournalInput{Name: "Bad", TemplateID: plain.ID})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.journals.Create(ctx, u.ID, JournalInput{Name: "Bad", TemplateID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = e.journals.Create(ctx, u.ID, JournalInput{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.journals.Create(ctx, u.ID, JournalInput{Name: "Risky", Settings: &models.JournalSettings{RiskPercent: 150}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestJournalDefaultHandling(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	main := e.defaultJournal(t, u.ID)

	swing, err := e.journals.Create(ctx, u.ID, JournalInput{Name: "Swing", IsDefault: true})
	require.NoError(t, err)

	list, err := e.journals.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, swing.ID, list[0].ID)
	assert.False(t, list[1].IsDefault)

	// the default cannot go while another journal exists
	err = e.journals.Delete(ctx, u.ID, swing.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, e.journals.Delete(ctx, u.ID, main.ID))
	assert.ErrorIs(t, e.journals.Delete(ctx, u.ID, main.ID), apperrors.ErrNotFound)

	// now it is the last one
	require.NoError(t, e.journals.Delete(ctx, u.ID, swing.ID))

	fresh, err := e.journals.Create(ctx, u.ID, JournalInput{Name: "Fresh start"})
	require.NoError(t, err)
	assert.True(t, fresh.IsDefault, "a user's only journal is the default")
}

func TestJournalUpdate(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	other := e.signup(t, "other@example.com")
	main := e.defaultJournal(t, u.ID)

	_, err := e.trades.Create(ctx, u.ID, TradeInput{Symbol: "aapl", TradeType: "buy", Quantity: 1, EntryPrice: 100, Notes: "kept"})
	require.NoError(t, err)

	updated, err := e.journals.Update(ctx, u.ID, main.ID, JournalPatch{
		Description: ptr("long only"),
		Settings:    &models.JournalSettings{Currency: "gbp", InitialCapital: 2500},
	})
	require.NoError(t, err)
	assert.Equal(t, "Main Journal", updated.Name, "unset fields are unchanged")
	assert.Equal(t, "long only", updated.Description)
	assert.Equal(t, "GBP", updated.Settings.Currency)
	require.Len(t, updated.Trades, 1)
	assert.Equal(t, "kept", updated.Trades[0].Notes)

	_, err = e.journals.Update(ctx, u.ID, main.ID, JournalPatch{Name: ptr("   ")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.journals.Update(ctx, other.ID, main.ID, JournalPatch{Name: ptr("stolen")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := e.journals.Get(ctx, u.ID, main.ID)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, got.Settings.InitialCapital)
	require.Len(t, got.Trades, 1)
}
