// Package cmd implements journalctl, the operator CLI for a tradejournal deployment.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tradejournal/internal/app"
	"tradejournal/internal/config"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// Loader opens the application. Tests swap it for one backed by a temp directory.
type Loader func(ctx context.Context, tweak func(*config.Config)) (*app.App, error)

// RootConfig is shared by every subcommand.
type RootConfig struct {
	Load   Loader
	Format string
}

func defaultLoader(ctx context.Context, tweak func(*config.Config)) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if tweak != nil {
		tweak(cfg)
	}
	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

// NewRootCmd builds the command tree around load.
func NewRootCmd(load Loader) *cobra.Command {
	rc := &RootConfig{Load: load}
	cmd := &cobra.Command{
		Use:   "journalctl",
		Short: "Operate a tradejournal data store",
		Long: `journalctl works directly on the store configured for the server
(STORE_DRIVER, DATA_DIR, DATABASE_URL, SQLITE_PATH; a .env file is honored).

Examples:
  journalctl migrate --owner admin@example.com
  journalctl migrate --owner admin@example.com --file old/journals.json
  journalctl users list
  journalctl users approve trader@example.com
  journalctl report --email trader@example.com --format yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch rc.Format {
			case formatText, formatJSON, formatYAML:
				return nil
			}
			return fmt.Errorf("unknown --format %q (want text, json or yaml)", rc.Format)
		},
	}
	cmd.PersistentFlags().StringVarP(&rc.Format, "format", "o", formatText, "output format: text, json or yaml")

	cmd.AddCommand(
		newMigrateCmd(rc),
		newUsersCmd(rc),
		newReportCmd(rc),
	)
	return cmd
}

// Execute runs journalctl with the configured store.
func Execute() error {
	return NewRootCmd(defaultLoader).Execute()
}

// open loads the app and hands it to fn, closing it afterwards.
func (rc *RootConfig) open(cmd *cobra.Command, tweak func(*config.Config), fn func(*app.App) error) error {
	a, err := rc.Load(cmd.Context(), tweak)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Logger.Sync()
		a.Close()
	}()
	return fn(a)
}

// render writes v as JSON or YAML, or calls text for the text format.
func (rc *RootConfig) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch rc.Format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		node, err := yamlNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(node)
	default:
		return text(w)
	}
}

// yamlNode converts v through its JSON form so YAML output uses the same field names as
// the API and omits the same fields.
func yamlNode(v any) (*yaml.Node, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return &doc, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
