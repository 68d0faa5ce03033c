package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tradejournal/internal/app"
	"tradejournal/internal/config"
	"tradejournal/internal/models"
	"tradejournal/internal/services"
	"tradejournal/internal/store"
)

const flatJournals = `[
  {"id": "j-legacy", "name": "Old journal", "trades": [
    {"id": "t-legacy", "symbol": "eurusd", "tradeType": "buy", "quantity": 1000, "entryPrice": 1.1, "exitPrice": 1.2,
     "entryDate": "2023-05-01T09:00:00Z", "exitDate": "2023-05-02T09:00:00Z"}
  ]}
]`

type fixture struct {
	cfg  config.Config
	load Loader
}

func newFixture(t *testing.T, driver string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{cfg: config.Config{
		Env:           "test",
		StoreDriver:   driver,
		DataDir:       dir,
		SQLitePath:    filepath.Join(dir, "journal.db"),
		SessionSecret: "secret",
		SessionCookie: "session",
		SessionTTL:    time.Hour,
		AuthRateLimit: "10-M",
	}}
	f.load = func(ctx context.Context, tweak func(*config.Config)) (*app.App, error) {
		cfg := f.cfg
		if tweak != nil {
			tweak(&cfg)
		}
		return app.New(ctx, &cfg, zap.NewNop())
	}
	return f
}

// with opens the app outside of any command.
func (f *fixture) with(t *testing.T, fn func(a *app.App)) {
	t.Helper()
	a, err := f.load(context.Background(), nil)
	require.NoError(t, err)
	defer a.Close()
	fn(a)
}

func (f *fixture) signup(t *testing.T, emails ...string) {
	t.Helper()
	f.with(t, func(a *app.App) {
		for _, e := range emails {
			_, err := a.Auth.Signup(context.Background(), services.Credentials{Email: e, Password: "password1"})
			require.NoError(t, err)
		}
	})
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(f.load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersListAndApprove(t *testing.T) {
	f := newFixture(t, config.DriverFile)
	f.signup(t, "admin@example.com", "trader@example.com")

	out, err := f.run(t, "users", "list", "--pending", "-o", "json")
	require.NoError(t, err)
	var pending []models.User
	require.NoError(t, json.Unmarshal([]byte(out), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "trader@example.com", pending[0].Email)

	out, err = f.run(t, "users", "approve", "Trader@Example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "approved trader@example.com")

	out, err = f.run(t, "users", "list", "--pending")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.NotContains(t, out, "trader@example.com")

	out, err = f.run(t, "users", "list", "-o", "yaml")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 2)
	assert.Contains(t, listed[0], "isAdmin")
	assert.NotContains(t, out, "password")

	_, err = f.run(t, "users", "approve", "nobody@example.com")
	assert.Error(t, err)
}

func TestMigrateFileStoreInPlace(t *testing.T) {
	f := newFixture(t, config.DriverFile)
	f.signup(t, "admin@example.com", "trader@example.com")
	journalsPath := filepath.Join(f.cfg.DataDir, "journals.json")
	require.NoError(t, os.WriteFile(journalsPath, []byte(flatJournals), 0o644))

	out, err := f.run(t, "migrate", "--owner", "trader@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated 1 journals and 1 trades")
	assert.FileExists(t, journalsPath+".legacy.bak")

	f.with(t, func(a *app.App) {
		u, err := a.Users.GetByEmail(context.Background(), "trader@example.com")
		require.NoError(t, err)
		trades, err := a.Trades.List(context.Background(), u.ID, store.TradeFilter{})
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "EURUSD", trades[0].Symbol)
	})

	out, err = f.run(t, "migrate", "--owner", "trader@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
}

func TestMigrateFileIntoSQLite(t *testing.T) {
	f := newFixture(t, config.DriverSQLite)
	f.signup(t, "admin@example.com")
	legacyPath := filepath.Join(t.TempDir(), "journals.json")
	require.NoError(t, os.WriteFile(legacyPath, []byte(flatJournals), 0o644))

	out, err := f.run(t, "migrate", "--owner", "admin@example.com", "--file", legacyPath, "-o", "json")
	require.NoError(t, err)
	var rep struct {
		Migrated bool                  `json:"migrated"`
		Journals int                   `json:"journals"`
		Imported services.ImportResult `json:"imported"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Migrated)
	assert.Equal(t, services.ImportResult{Journals: 1, Trades: 1}, rep.Imported)

	f.with(t, func(a *app.App) {
		u, err := a.Users.GetByEmail(context.Background(), "admin@example.com")
		require.NoError(t, err)
		js, err := a.Journals.List(context.Background(), u.ID)
		require.NoError(t, err)
		require.Len(t, js, 2)
		assert.True(t, js[0].IsDefault, "the account keeps its own default journal")
		assert.Equal(t, "Old journal", js[1].Name)
	})

	_, err = f.run(t, "migrate", "--owner", "admin@example.com")
	assert.ErrorContains(t, err, "use --file")
	_, err = f.run(t, "migrate", "--owner", "ghost@example.com", "--file", legacyPath)
	assert.ErrorContains(t, err, "does not exist")
	_, err = f.run(t, "migrate")
	assert.ErrorContains(t, err, "--owner is required")
}

func TestReport(t *testing.T) {
	f := newFixture(t, config.DriverFile)
	f.signup(t, "admin@example.com")
	f.with(t, func(a *app.App) {
		ctx := context.Background()
		u, err := a.Users.GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		pb, err := a.Playbooks.Create(ctx, u.ID, services.PlaybookInput{Name: "Breakout"})
		require.NoError(t, err)
		exit := 1100.0
		_, err = a.Trades.Create(ctx, u.ID, services.TradeInput{
			Symbol: "BTC", TradeType: "buy", Quantity: 2, EntryPrice: 1000, ExitPrice: &exit, Playbook: pb.ID,
		})
		require.NoError(t, err)
	})

	out, err := f.run(t, "report", "--email", "admin@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com, all journals")
	assert.Contains(t, out, "$200.00")
	assert.Contains(t, out, "Breakout")

	out, err = f.run(t, "report", "--email", "admin@example.com", "--journal", "main journal", "-o", "yaml")
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "Main Journal", rep["journal"])
	summary := rep["summary"].(map[string]any)
	assert.EqualValues(t, 200, summary["netPL"])

	_, err = f.run(t, "report", "--email", "admin@example.com", "--journal", "nope")
	assert.ErrorContains(t, err, "no journal")
	_, err = f.run(t, "report", "--email", "admin@example.com", "-o", "xml")
	assert.ErrorContains(t, err, "unknown --format")
}
