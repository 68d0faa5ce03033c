package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/crypto"
	"tradejournal/internal/store"
)

func TestTradeCreate(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	main := e.defaultJournal(t, u.ID)

	entry := time.Date(2024, 2, 1, 14, 30, 0, 0, time.UTC)
	tr, err := e.trades.Create(ctx, u.ID, TradeInput{
		Symbol:     " aapl ",
		TradeType:  "BUY",
		Quantity:   10,
		EntryPrice: 100,
		ExitPrice:  ptr(110.0),
		Fees:       1,
		Risk:       "Low",
		Rating:     4,
		Tags:       []string{"gap"},
		EntryDate:  &entry,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, main.ID, tr.JournalID, "defaults to the default journal")
	assert.Equal(t, u.ID, tr.UserID)
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, "buy", tr.TradeType)
	assert.Equal(t, "low", tr.Risk)
	require.NotNil(t, tr.ExitDate, "closing a trade stamps the exit date")
	assert.True(t, tr.IsClosed())

	got, err := e.trades.Get(ctx, u.ID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"gap"}, []string(got.Tags))
}

func TestTradeValidation(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	other := e.signup(t, "other@example.com")
	foreign := e.defaultJournal(t, other.ID)

	entry := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	before := entry.Add(-time.Hour)
	valid := func() TradeInput {
		return TradeInput{Symbol: "MSFT", TradeType: "sell", Quantity: 1, EntryPrice: 10, EntryDate: &entry}
	}

	cases := map[string]func(in *TradeInput){
		"missing symbol":     func(in *TradeInput) { in.Symbol = "" },
		"bad type":           func(in *TradeInput) { in.TradeType = "short" },
		"zero quantity":      func(in *TradeInput) { in.Quantity = 0 },
		"negative price":     func(in *TradeInput) { in.EntryPrice = -1 },
		"negative fees":      func(in *TradeInput) { in.Fees = -1 },
		"rating too high":    func(in *TradeInput) { in.Rating = 6 },
		"unknown risk":       func(in *TradeInput) { in.Risk = "extreme" },
		"exit before entry":  func(in *TradeInput) { in.ExitPrice = ptr(12.0); in.ExitDate = &before },
		"zero exit price":    func(in *TradeInput) { in.ExitPrice = ptr(0.0) },
		"negative stop loss": func(in *TradeInput) { in.StopLoss = ptr(-5.0) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid()
			mutate(&in)
			_, err := e.trades.Create(ctx, u.ID, in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	in := valid()
	in.JournalID = foreign.ID
	_, err := e.trades.Create(ctx, u.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTradeUpdate(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	swing, err := e.journals.Create(ctx, u.ID, JournalInput{Name: "Swing"})
	require.NoError(t, err)

	tr, err := e.trades.Create(ctx, u.ID, TradeInput{Symbol: "NVDA", TradeType: "buy", Quantity: 2, EntryPrice: 500, Notes: "first"})
	require.NoError(t, err)
	assert.False(t, tr.IsClosed())

	closed, err := e.trades.Update(ctx, u.ID, tr.ID, TradePatch{ExitPrice: ptr(550.0), Mood: ptr("calm")})
	require.NoError(t, err)
	assert.True(t, closed.IsClosed())
	assert.NotNil(t, closed.ExitDate)
	assert.Equal(t, "calm", closed.Mood)
	assert.Equal(t, "first", closed.Notes, "unset fields are unchanged")
	assert.Equal(t, 2.0, closed.Quantity)

	reopened, err := e.trades.Update(ctx, u.ID, tr.ID, TradePatch{ClearExit: true, JournalID: ptr(swing.ID)})
	require.NoError(t, err)
	assert.Nil(t, reopened.ExitPrice)
	assert.Nil(t, reopened.ExitDate)
	assert.Equal(t, swing.ID, reopened.JournalID)

	inSwing, err := e.trades.List(ctx, u.ID, store.TradeFilter{JournalID: swing.ID})
	require.NoError(t, err)
	require.Len(t, inSwing, 1)

	_, err = e.trades.Update(ctx, u.ID, tr.ID, TradePatch{Quantity: ptr(-1.0)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.trades.Update(ctx, u.ID, "missing", TradePatch{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, e.trades.Delete(ctx, u.ID, tr.ID))
	assert.ErrorIs(t, e.trades.Delete(ctx, u.ID, tr.ID), apperrors.ErrNotFound)
}

func TestTradeNotesEncryptedAtRest(t *testing.T) {
	e := newEnv(t, testKey)
	ctx := context.Background()
	u := e.signup(t, "me@example.com")

	tr, err := e.trades.Create(ctx, u.ID, TradeInput{Symbol: "BTC", TradeType: "buy", Quantity: 1, EntryPrice: 40000, Notes: "secret plan"})
	require.NoError(t, err)
	assert.Equal(t, "secret plan", tr.Notes)

	raw, err := e.store.GetTrade(ctx, u.ID, tr.ID)
	require.NoError(t, err)
	assert.True(t, crypto.IsSealed(raw.Notes))
	assert.NotContains(t, raw.Notes, "secret plan")

	got, err := e.trades.Get(ctx, u.ID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret plan", got.Notes)

	list, err := e.trades.List(ctx, u.ID, store.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "secret plan", list[0].Notes)

	j, err := e.journals.Get(ctx, u.ID, tr.JournalID)
	require.NoError(t, err)
	assert.Equal(t, "secret plan", j.Trades[0].Notes)
}

func TestTradeNotesThatLookSealed(t *testing.T) {
	for name, key := range map[string]string{"without key": "", "with key": testKey} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, key)
			ctx := context.Background()
			u := e.signup(t, "me@example.com")
			const note = "enc:v1:my own text"

			tr, err := e.trades.Create(ctx, u.ID, TradeInput{Symbol: "ETH", TradeType: "buy", Quantity: 1, EntryPrice: 2000, Notes: note})
			require.NoError(t, err)
			assert.Equal(t, note, tr.Notes)

			got, err := e.trades.Get(ctx, u.ID, tr.ID)
			require.NoError(t, err)
			assert.Equal(t, note, got.Notes)

			list, err := e.trades.List(ctx, u.ID, store.TradeFilter{})
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, note, list[0].Notes)

			j, err := e.journals.Get(ctx, u.ID, tr.JournalID)
			require.NoError(t, err)
			assert.Equal(t, note, j.Trades[0].Notes)

			dash, err := e.analytics.Dashboard(ctx, u.ID, DashboardQuery{})
			require.NoError(t, err)
			assert.Equal(t, note, dash.RecentTrades[0].Notes)

			var buf bytes.Buffer
			require.NoError(t, e.trades.ExportCSV(ctx, u.ID, "", &buf))
			assert.Contains(t, buf.String(), note)

			patched, err := e.trades.Update(ctx, u.ID, tr.ID, TradePatch{Notes: ptr("enc:plain:also mine")})
			require.NoError(t, err)
			assert.Equal(t, "enc:plain:also mine", patched.Notes)
			got, err = e.trades.Get(ctx, u.ID, tr.ID)
			require.NoError(t, err)
			assert.Equal(t, "enc:plain:also mine", got.Notes)
		})
	}
}

func TestExportCSV(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	u := e.signup(t, "me@example.com")
	entry := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	exit := entry.Add(time.Hour)

	_, err := e.trades.Create(ctx, u.ID, TradeInput{
		Symbol: "AAPL", TradeType: "buy", Quantity: 10, EntryPrice: 100, ExitPrice: ptr(110.0), Fees: 1,
		EntryDate: &entry, ExitDate: &exit, Tags: []string{"a", "b"}, Notes: "has, comma",
	})
	require.NoError(t, err)
	_, err = e.trades.Create(ctx, u.ID, TradeInput{Symbol: "MSFT", TradeType: "sell", Quantity: 1, EntryPrice: 300, EntryDate: &exit})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.trades.ExportCSV(ctx, u.ID, "", &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])

	open, closed := rows[1], rows[2]
	assert.Equal(t, "MSFT", open[2])
	assert.Equal(t, "open", open[10])
	assert.Equal(t, "", open[11])

	assert.Equal(t, "AAPL", closed[2])
	assert.Equal(t, "Main Journal", closed[1])
	assert.Equal(t, "closed", closed[10])
	assert.Equal(t, "99", closed[11])
	assert.Equal(t, "$99.00", closed[12])
	assert.Equal(t, "a;b", closed[14])
	assert.Equal(t, "has, comma", closed[15])

	err = e.trades.ExportCSV(ctx, u.ID, "missing", &bytes.Buffer{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
