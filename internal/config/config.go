package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const devSessionSecret = "development-only-session-secret"

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	StoreDriver   string
	DataDir       string
	DatabaseURL   string
	SQLitePath    string
	SessionSecret string
	SessionCookie string
	SessionTTL    time.Duration
	CookieSecure  bool
	NotesKey      string
	LegacyOwner   string
	CORSOrigins   []string
	AuthRateLimit string
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether the built-in session secret may be used.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from the environment, after loading a .env file if present.
// Real environment variables win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", DriverFile)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "./data/tradejournal.db")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_COOKIE", "session")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("NOTES_KEY", "")
	v.SetDefault("LEGACY_OWNER", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.AutomaticEnv()

	cfg := &Config{
		Port:          v.GetString("PORT"),
		Env:           strings.ToLower(v.GetString("ENV")),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		DataDir:       v.GetString("DATA_DIR"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		SQLitePath:    v.GetString("SQLITE_PATH"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionCookie: v.GetString("SESSION_COOKIE"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),
		NotesKey:      v.GetString("NOTES_KEY"),
		LegacyOwner:   strings.ToLower(strings.TrimSpace(v.GetString("LEGACY_OWNER"))),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimit: v.GetString("AUTH_RATE_LIMIT"),
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL %q", v.GetString("SESSION_TTL"))
	}
	cfg.SessionTTL = ttl

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the %s store", DriverFile)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s store", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want file, postgres or sqlite)", c.StoreDriver)
	}

	if c.SessionSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("SESSION_SECRET is required when ENV is %q", c.Env)
		}
		c.SessionSecret = devSessionSecret
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
