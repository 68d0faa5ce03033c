package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradejournal/internal/config"
	"tradejournal/internal/services"
)

func testConfig(t *testing.T, driver string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Env:           "test",
		StoreDriver:   driver,
		DataDir:       dir,
		SQLitePath:    filepath.Join(dir, "nested", "journal.db"),
		SessionSecret: "secret",
		SessionCookie: "session",
		SessionTTL:    time.Hour,
		AuthRateLimit: "100-M",
	}
}

func TestNewWiresEveryDriver(t *testing.T) {
	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			a, err := New(ctx, testConfig(t, driver), zap.NewNop())
			require.NoError(t, err)
			defer a.Close()

			u, err := a.Auth.Signup(ctx, services.Credentials{Email: "admin@example.com", Password: "password1"})
			require.NoError(t, err)
			js, err := a.Journals.List(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, js, 1)

			h, err := a.Handler()
			require.NoError(t, err)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	cfg := testConfig(t, "mongo")
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t, config.DriverFile)
	cfg.NotesKey = "not base64!"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t, config.DriverFile)
	cfg.AuthRateLimit = "often"
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Handler()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := NewLogger(env)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
