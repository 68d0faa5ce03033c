// Package app wires configuration, storage and services together for the server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tradejournal/internal/config"
	"tradejournal/internal/db"
	"tradejournal/internal/handlers"
	mw "tradejournal/internal/middleware"
	"tradejournal/internal/services"
	"tradejournal/internal/store"
	"tradejournal/internal/store/filestore"
	"tradejournal/internal/store/sqlstore"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  store.Store

	Auth      *services.AuthService
	Users     *services.UserService
	Journals  *services.JournalService
	Trades    *services.TradeService
	Playbooks *services.PlaybookService
	Analytics *services.AnalyticsService
	Imports   *services.ImportService
}

// OpenStore opens the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		fs, err := filestore.Open(cfg.DataDir, filestore.Options{
			LegacyOwner: cfg.LegacyOwner,
			Logger:      logger.Named("filestore"),
		})
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.DriverPostgres:
		conn, err := db.Open(ctx, db.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return sqlstore.New(conn, logger.Named("sqlstore")), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		conn, err := db.Open(ctx, db.DriverSQLite, db.SQLiteDSN(cfg.SQLitePath))
		if err != nil {
			return nil, err
		}
		return sqlstore.New(conn, logger.Named("sqlstore")), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New opens the store and builds every service on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return a, nil
}

func NewWithStore(cfg *config.Config, st store.Store, logger *zap.Logger) (*App, error) {
	enc, err := services.NewEncryptionService(cfg.NotesKey)
	if err != nil {
		return nil, err
	}
	if enc.Enabled() {
		logger.Info("trade notes are encrypted at rest")
	}
	journals := services.NewJournalService(st, enc, logger)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Auth:      services.NewAuthService(st, []byte(cfg.SessionSecret), cfg.SessionTTL, logger),
		Users:     services.NewUserService(st, logger),
		Journals:  journals,
		Trades:    services.NewTradeService(st, journals, enc, logger),
		Playbooks: services.NewPlaybookService(st, logger),
		Analytics: services.NewAnalyticsService(st, enc, logger),
		Imports:   services.NewImportService(st, enc, logger),
	}, nil
}

// Handler builds the HTTP router.
func (a *App) Handler() (http.Handler, error) {
	limiter, err := mw.NewIPLimiter(a.Config.AuthRateLimit)
	if err != nil {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
	}
	return handlers.NewRouter(handlers.Deps{
		Auth:      a.Auth,
		Users:     a.Users,
		Journals:  a.Journals,
		Trades:    a.Trades,
		Playbooks: a.Playbooks,
		Analytics: a.Analytics,
		Imports:   a.Imports,
		Cookie: handlers.CookieConfig{
			Name:   a.Config.SessionCookie,
			Secure: a.Config.CookieSecure,
		},
		CORSOrigins: a.Config.CORSOrigins,
		AuthLimiter: limiter,
		Logger:      a.Logger,
	}), nil
}

func (a *App) Close() error { return a.Store.Close() }
