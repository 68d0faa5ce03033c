// Package storetest is a behavioural test suite shared by every store.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

// Run exercises s against the store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("journals", func(t *testing.T) { testJournals(t, newStore(t)) })
	t.Run("trades", func(t *testing.T) { testTrades(t, newStore(t)) })
	t.Run("playbooks", func(t *testing.T) { testPlaybooks(t, newStore(t)) })
	t.Run("cascade", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("import", func(t *testing.T) { testImport(t, newStore(t)) })
}

func NewUser(email string, at time.Time) *models.User {
	return &models.User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: "hash",
		IsApproved:   true,
		CreatedAt:    at,
	}
}

func NewJournal(userID, name string, at time.Time) *models.Journal {
	return &models.Journal{
		ID:        id.New(),
		UserID:    userID,
		Name:      name,
		Settings:  models.JournalSettings{Currency: "USD", InitialCapital: 1000, RiskPercent: 1},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func NewTrade(userID, journalID, symbol string, entry time.Time) *models.Trade {
	return &models.Trade{
		ID:         id.New(),
		UserID:     userID,
		JournalID:  journalID,
		Symbol:     symbol,
		TradeType:  models.TradeBuy,
		Quantity:   10,
		EntryPrice: 100,
		Tags:       models.StringList{"breakout"},
		EntryDate:  entry,
		CreatedAt:  entry,
		UpdatedAt:  entry,
	}
}

func mustUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := NewUser(email, base)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustJournal(t *testing.T, s store.Store, userID, name string, at time.Time) *models.Journal {
	t.Helper()
	j := NewJournal(userID, name, at)
	require.NoError(t, s.CreateJournal(context.Background(), j))
	return j
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := NewUser("first@example.com", base)
	first.IsAdmin = true
	require.NoError(t, s.CreateUser(ctx, first))
	second := NewUser("second@example.com", base.Add(time.Hour))
	second.IsApproved = false
	require.NoError(t, s.CreateUser(ctx, second))

	err := s.CreateUser(ctx, NewUser("FIRST@example.com", base))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	got, err := s.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.IsAdmin)
	assert.Nil(t, got.LastLogin)

	byEmail, err := s.GetUserByEmail(ctx, "Second@Example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, byEmail.ID)
	assert.False(t, byEmail.IsApproved)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	login := base.Add(2 * time.Hour)
	byEmail.IsApproved = true
	byEmail.LastLogin = &login
	require.NoError(t, s.UpdateUser(ctx, byEmail))
	got, err = s.GetUser(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	require.NotNil(t, got.LastLogin)
	assert.True(t, login.Equal(*got.LastLogin))

	got.Email = "first@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, got), apperrors.ErrDuplicate)
	assert.ErrorIs(t, s.UpdateUser(ctx, NewUser("ghost@example.com", base)), apperrors.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testJournals(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "j@example.com")
	other := mustUser(t, s, "other@example.com")

	primary := NewJournal(u.ID, "Main", base)
	primary.IsDefault = true
	require.NoError(t, s.CreateJournal(ctx, primary))
	swing := mustJournal(t, s, u.ID, "Swing", base.Add(time.Minute))
	mustJournal(t, s, other.ID, "Theirs", base)

	assert.ErrorIs(t, s.CreateJournal(ctx, primary), apperrors.ErrDuplicate)

	list, err := s.ListJournals(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, primary.ID, list[0].ID)
	assert.Equal(t, swing.ID, list[1].ID)
	assert.Equal(t, 1000.0, list[0].Settings.InitialCapital)

	_, err = s.GetJournal(ctx, other.ID, primary.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "journals are scoped to their owner")

	tr := NewTrade(u.ID, swing.ID, "AAPL", base)
	require.NoError(t, s.CreateTrade(ctx, tr))

	// promoting another journal clears the old default and keeps trades
	swing.IsDefault = true
	swing.Name = "Swing trades"
	swing.Settings.Currency = "EUR"
	require.NoError(t, s.UpdateJournal(ctx, swing))

	got, err := s.GetJournal(ctx, u.ID, swing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Swing trades", got.Name)
	assert.Equal(t, "EUR", got.Settings.Currency)
	assert.True(t, got.IsDefault)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, tr.ID, got.Trades[0].ID)

	list, err = s.ListJournals(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, swing.ID, list[0].ID)
	assert.False(t, list[1].IsDefault)
	assert.Empty(t, list[0].Trades, "list does not embed trades")

	require.NoError(t, s.DeleteJournal(ctx, u.ID, swing.ID))
	assert.ErrorIs(t, s.DeleteJournal(ctx, u.ID, swing.ID), apperrors.ErrNotFound)
	_, err = s.GetTrade(ctx, u.ID, tr.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "trades go with their journal")
}

func testTrades(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "t@example.com")
	other := mustUser(t, s, "x@example.com")
	j1 := mustJournal(t, s, u.ID, "One", base)
	j2 := mustJournal(t, s, u.ID, "Two", base)
	foreign := mustJournal(t, s, other.ID, "Foreign", base)

	bad := NewTrade(u.ID, foreign.ID, "AAPL", base)
	assert.ErrorIs(t, s.CreateTrade(ctx, bad), apperrors.ErrNotFound)

	exit := 110.0
	exitAt := base.Add(48 * time.Hour)
	older := NewTrade(u.ID, j1.ID, "AAPL", base)
	older.ExitPrice = &exit
	older.ExitDate = &exitAt
	older.Playbook = "pb1"
	newer := NewTrade(u.ID, j1.ID, "MSFT", base.Add(24*time.Hour))
	inTwo := NewTrade(u.ID, j2.ID, "AAPL", base.Add(12*time.Hour))
	for _, tr := range []*models.Trade{older, newer, inTwo} {
		require.NoError(t, s.CreateTrade(ctx, tr))
	}
	assert.ErrorIs(t, s.CreateTrade(ctx, older), apperrors.ErrDuplicate)

	all, err := s.ListTrades(ctx, u.ID, store.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newer.ID, inTwo.ID, older.ID}, tradeIDs(all))

	from := base.Add(12 * time.Hour)
	cases := map[string]struct {
		filter store.TradeFilter
		want   []string
	}{
		"journal":  {store.TradeFilter{JournalID: j1.ID}, []string{newer.ID, older.ID}},
		"symbol":   {store.TradeFilter{Symbol: "aapl"}, []string{inTwo.ID, older.ID}},
		"playbook": {store.TradeFilter{Playbook: "pb1"}, []string{older.ID}},
		"open":     {store.TradeFilter{Status: store.StatusOpen}, []string{newer.ID, inTwo.ID}},
		"closed":   {store.TradeFilter{Status: store.StatusClosed}, []string{older.ID}},
		"range":    {store.TradeFilter{From: &from, To: &from}, []string{inTwo.ID}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := s.ListTrades(ctx, u.ID, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tradeIDs(got))
		})
	}

	none, err := s.ListTrades(ctx, other.ID, store.TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := s.GetTrade(ctx, u.ID, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 110.0, *got.ExitPrice)
	require.NotNil(t, got.ExitDate)
	assert.True(t, exitAt.Equal(*got.ExitDate))
	assert.Equal(t, models.StringList{"breakout"}, got.Tags)
	assert.Nil(t, got.StopLoss)

	_, err = s.GetTrade(ctx, other.ID, older.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// reopen and move to the other journal
	got.ExitPrice = nil
	got.ExitDate = nil
	got.JournalID = j2.ID
	got.Notes = "moved"
	require.NoError(t, s.UpdateTrade(ctx, got))

	moved, err := s.GetTrade(ctx, u.ID, older.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.ExitPrice)
	assert.Nil(t, moved.ExitDate)
	assert.Equal(t, j2.ID, moved.JournalID)
	assert.Equal(t, "moved", moved.Notes)

	inJ1, err := s.ListTrades(ctx, u.ID, store.TradeFilter{JournalID: j1.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID}, tradeIDs(inJ1))

	moved.JournalID = foreign.ID
	assert.ErrorIs(t, s.UpdateTrade(ctx, moved), apperrors.ErrNotFound)

	require.NoError(t, s.DeleteTrade(ctx, u.ID, newer.ID))
	assert.ErrorIs(t, s.DeleteTrade(ctx, u.ID, newer.ID), apperrors.ErrNotFound)
}

func testPlaybooks(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "p@example.com")

	p := &models.Playbook{
		ID:         id.New(),
		UserID:     u.ID,
		Name:       "Opening range breakout",
		EntryRules: "break of the 5m high",
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, s.CreatePlaybook(ctx, p))
	later := &models.Playbook{ID: id.New(), UserID: u.ID, Name: "Fade", CreatedAt: base.Add(time.Hour), UpdatedAt: base}
	require.NoError(t, s.CreatePlaybook(ctx, later))
	assert.ErrorIs(t, s.CreatePlaybook(ctx, p), apperrors.ErrDuplicate)

	got, err := s.GetPlaybook(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "break of the 5m high", got.EntryRules)

	got.ExitRules = "trail under VWAP"
	require.NoError(t, s.UpdatePlaybook(ctx, got))
	got, err = s.GetPlaybook(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "trail under VWAP", got.ExitRules)
	assert.Equal(t, "Opening range breakout", got.Name)

	list, err := s.ListPlaybooks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, s.DeletePlaybook(ctx, u.ID, p.ID))
	assert.ErrorIs(t, s.DeletePlaybook(ctx, u.ID, p.ID), apperrors.ErrNotFound)
	_, err = s.GetPlaybook(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	keep := mustUser(t, s, "keep@example.com")
	gone := mustUser(t, s, "gone@example.com")
	pending := NewUser("pending@example.com", base)
	pending.IsApproved = false
	require.NoError(t, s.CreateUser(ctx, pending))

	for _, u := range []*models.User{keep, gone} {
		j := mustJournal(t, s, u.ID, "Main", base)
		require.NoError(t, s.CreateTrade(ctx, NewTrade(u.ID, j.ID, "SPY", base)))
		require.NoError(t, s.CreatePlaybook(ctx, &models.Playbook{ID: id.New(), UserID: u.ID, Name: "pb", CreatedAt: base, UpdatedAt: base}))
	}

	o, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Overview{Users: 3, PendingUsers: 1, Journals: 2, Trades: 2, Playbooks: 2}, o)

	require.NoError(t, s.DeleteUser(ctx, gone.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, gone.ID), apperrors.ErrNotFound)

	o, err = s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Overview{Users: 2, PendingUsers: 1, Journals: 1, Trades: 1, Playbooks: 1}, o)

	journals, err := s.ListJournals(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, journals)
	trades, err := s.ListTrades(ctx, gone.ID, store.TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func testImport(t *testing.T, s store.Store) {
	ctx := context.Background()
	me := mustUser(t, s, "me@example.com")
	other := mustUser(t, s, "other@example.com")

	primary := NewJournal(me.ID, "Main", base)
	primary.IsDefault = true
	require.NoError(t, s.CreateJournal(ctx, primary))
	moved := NewTrade(me.ID, primary.ID, "SPY", base)
	require.NoError(t, s.CreateTrade(ctx, moved))
	theirs := mustJournal(t, s, other.ID, "Theirs", base)
	theirTrade := NewTrade(other.ID, theirs.ID, "QQQ", base)
	require.NoError(t, s.CreateTrade(ctx, theirTrade))
	theirPlaybook := &models.Playbook{ID: id.New(), UserID: other.ID, Name: "Theirs", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreatePlaybook(ctx, theirPlaybook))

	later := base.Add(time.Hour)
	renamed := *primary
	renamed.Name = "Main renamed"
	renamed.IsDefault = false
	renamed.CreatedAt = later
	renamed.UpdatedAt = later
	renamed.Trades = nil

	fresh := NewJournal("", "Imported", later)
	fresh.IsDefault = true
	movedAgain := *moved
	movedAgain.Symbol = "IWM"
	stolen := *theirTrade
	fresh.Trades = []models.Trade{movedAgain, stolen}

	clash := *theirs
	clash.Name = "Clash"

	b := &store.ImportBatch{
		UserID:   me.ID,
		Journals: []models.Journal{renamed, *fresh, clash},
		Playbooks: []models.Playbook{
			{ID: theirPlaybook.ID, Name: "Mine now", CreatedAt: later, UpdatedAt: later},
			{ID: id.New(), Name: "Breakout", CreatedAt: later, UpdatedAt: later},
		},
	}
	require.NoError(t, s.Import(ctx, b))

	got, err := s.GetJournal(ctx, me.ID, primary.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main renamed", got.Name)
	assert.True(t, got.IsDefault, "an existing journal keeps its default flag")
	assert.True(t, got.CreatedAt.Equal(base), "an existing journal keeps its creation time")
	assert.Empty(t, got.Trades, "the trade moved to the imported journal")

	got, err = s.GetJournal(ctx, me.ID, fresh.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault, "imported journals never become the default")
	require.Len(t, got.Trades, 2)

	tr, err := s.GetTrade(ctx, me.ID, moved.ID)
	require.NoError(t, err)
	assert.Equal(t, "IWM", tr.Symbol)
	assert.Equal(t, fresh.ID, tr.JournalID)

	require.Len(t, b.Journals[1].Trades, 2)
	stolenID := b.Journals[1].Trades[1].ID
	assert.NotEqual(t, theirTrade.ID, stolenID, "another user's trade id is replaced")
	_, err = s.GetTrade(ctx, me.ID, stolenID)
	require.NoError(t, err)
	kept, err := s.GetTrade(ctx, other.ID, theirTrade.ID)
	require.NoError(t, err)
	assert.Equal(t, "QQQ", kept.Symbol)

	assert.NotEqual(t, theirs.ID, b.Journals[2].ID, "another user's journal id is replaced")
	keptJournal, err := s.GetJournal(ctx, other.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", keptJournal.Name)

	mine, err := s.ListPlaybooks(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.NotEqual(t, theirPlaybook.ID, b.Playbooks[0].ID)
	keptPlaybook, err := s.GetPlaybook(ctx, other.ID, theirPlaybook.ID)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", keptPlaybook.Name)

	journals, err := s.ListJournals(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, journals, 3)
	defaults := 0
	for _, j := range journals {
		if j.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func tradeIDs(ts []models.Trade) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}
