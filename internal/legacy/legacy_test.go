package legacy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const flatDoc = `[
  {"id": "j1", "name": "Swing", "trades": [
    {"id": "t1", "symbol": " aapl ", "tradeType": "BUY", "quantity": 1, "entryPrice": 10, "entryDate": "2024-01-02T10:00:00Z"},
    {"symbol": "msft", "tradeType": "sell", "quantity": 2, "entryPrice": 20, "journalId": "stale"}
  ]},
  {"id": "j2", "name": "Scalps", "isDefault": true, "settings": {"currency": "EUR", "initialCapital": 500}},
  {"id": "j2", "name": "", "isDefault": true}
]`

func TestIsLegacy(t *testing.T) {
	assert.True(t, IsLegacy([]byte("  \n[]")))
	assert.False(t, IsLegacy([]byte(`{"u1": []}`)))
	assert.False(t, IsLegacy(nil))
}

func TestMigrateFlat(t *testing.T) {
	out, res, err := Migrate([]byte(flatDoc), "owner", now)
	require.NoError(t, err)

	assert.True(t, res.Migrated)
	assert.Equal(t, "owner", res.Owner)
	assert.Equal(t, 3, res.Journals)
	assert.Equal(t, 2, res.Trades)
	require.Len(t, out, 1)

	journals := out["owner"]
	require.Len(t, journals, 3)
	for _, j := range journals {
		assert.Equal(t, "owner", j.UserID)
		assert.False(t, j.CreatedAt.IsZero())
		assert.NotEmpty(t, j.Settings.Currency)
	}

	assert.Equal(t, "j1", journals[0].ID)
	assert.Equal(t, "USD", journals[0].Settings.Currency)
	assert.Equal(t, "EUR", journals[1].Settings.Currency)
	assert.NotEqual(t, "j2", journals[2].ID, "duplicate id is regenerated")
	assert.Equal(t, "Journal", journals[2].Name)

	defaults := 0
	for _, j := range journals {
		if j.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
	assert.True(t, journals[1].IsDefault)

	trades := journals[0].Trades
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].ID)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, "buy", trades[0].TradeType)
	assert.NotEmpty(t, trades[1].ID)
	assert.Equal(t, "MSFT", trades[1].Symbol)
	for _, tr := range trades {
		assert.Equal(t, "j1", tr.JournalID)
		assert.Equal(t, "owner", tr.UserID)
	}
	assert.Equal(t, journals[0].CreatedAt, trades[1].EntryDate)
}

func TestMigrateMarksFirstDefaultWhenNoneFlagged(t *testing.T) {
	out, _, err := Migrate([]byte(`[{"name":"a"},{"name":"b"}]`), "u", now)
	require.NoError(t, err)
	assert.True(t, out["u"][0].IsDefault)
	assert.False(t, out["u"][1].IsDefault)
}

func TestMigrateKeyedIsNoop(t *testing.T) {
	keyed := []byte(`{"u1": [{"id": "j1", "userId": "u1", "name": "Main", "isDefault": true}]}`)
	out, res, err := Migrate(keyed, "", now)
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Equal(t, "nothing to do: journals are already keyed by user", res.String())
	require.Len(t, out["u1"], 1)
	assert.Equal(t, "Main", out["u1"][0].Name)

	// running the migration on its own output changes nothing
	first, _, err := Migrate([]byte(flatDoc), "owner", now)
	require.NoError(t, err)
	raw, err := json.Marshal(first)
	require.NoError(t, err)
	second, res, err := Migrate(raw, "owner", now)
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	require.Len(t, second["owner"], 3)
	assert.Equal(t, first["owner"][2].ID, second["owner"][2].ID)
}

func TestMigrateEmptyAndErrors(t *testing.T) {
	out, res, err := Migrate([]byte("   "), "", now)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, res.Migrated)

	_, _, err = Migrate([]byte(`[]`), "", now)
	assert.ErrorIs(t, err, ErrNoOwner)

	_, _, err = Migrate([]byte(`[{"name": 1}]`), "u", now)
	assert.Error(t, err)
}
