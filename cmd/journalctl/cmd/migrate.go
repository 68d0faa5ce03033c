package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradejournal/internal/app"
	"tradejournal/internal/apperrors"
	"tradejournal/internal/config"
	"tradejournal/internal/legacy"
	"tradejournal/internal/services"
)

// legacyMigrator is implemented by stores that migrate their own legacy layout.
type legacyMigrator interface {
	LegacyPending() bool
	MigrateLegacy(ctx context.Context, ownerEmail string) (legacy.Result, error)
}

type migrateReport struct {
	legacy.Result
	Imported *services.ImportResult `json:"imported,omitempty"`
	Skipped  []string               `json:"skippedUsers,omitempty"`
}

func newMigrateCmd(rc *RootConfig) *cobra.Command {
	var owner, file string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move flat legacy journals to their owner",
		Long: `migrate converts a journals.json written by older versions (a flat array shared by
all accounts) into per-user journals owned by --owner.

Without --file the file store migrates its own data directory; a .legacy.bak copy of
the old document is kept next to it. With --file the document is read from the given
path and imported into whichever store is configured, which is how flat JSON data
reaches a Postgres or SQLite deployment. Already keyed documents are imported as-is
for the users that exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner = strings.ToLower(strings.TrimSpace(owner))
			if owner == "" {
				return errors.New("--owner is required")
			}
			tweak := func(cfg *config.Config) { cfg.LegacyOwner = owner }
			return rc.open(cmd, tweak, func(a *app.App) error {
				var (
					rep migrateReport
					err error
				)
				if file != "" {
					rep, err = importLegacyFile(cmd.Context(), a, owner, file)
				} else {
					rep.Result, err = migrateInPlace(cmd.Context(), a, owner)
				}
				if err != nil {
					return err
				}
				return rc.render(cmd.OutOrStdout(), rep, func(w io.Writer) error {
					fmt.Fprintln(w, rep.Result)
					if rep.Imported != nil {
						fmt.Fprintf(w, "imported %d journals, %d trades\n", rep.Imported.Journals, rep.Imported.Trades)
					}
					for _, u := range rep.Skipped {
						fmt.Fprintf(w, "skipped journals of unknown user %s\n", u)
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "email of the account that receives the legacy journals")
	cmd.Flags().StringVar(&file, "file", "", "legacy journals.json to import instead of the file store's own")
	return cmd
}

func migrateInPlace(ctx context.Context, a *app.App, owner string) (legacy.Result, error) {
	m, ok := a.Store.(legacyMigrator)
	if !ok {
		return legacy.Result{}, fmt.Errorf("the %s store has no legacy layout; use --file", a.Config.StoreDriver)
	}
	return m.MigrateLegacy(ctx, owner)
}

func importLegacyFile(ctx context.Context, a *app.App, owner, path string) (migrateReport, error) {
	var rep migrateReport
	raw, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	u, err := a.Users.GetByEmail(ctx, owner)
	if errors.Is(err, apperrors.ErrNotFound) {
		return rep, fmt.Errorf("owner %s does not exist", owner)
	}
	if err != nil {
		return rep, err
	}

	keyed, res, err := legacy.Migrate(raw, u.ID, time.Now().UTC())
	if err != nil {
		return rep, err
	}
	rep.Result = res
	rep.Imported = &services.ImportResult{}

	userIDs := make([]string, 0, len(keyed))
	for userID := range keyed {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	for _, userID := range userIDs {
		if _, err := a.Users.Get(ctx, userID); errors.Is(err, apperrors.ErrNotFound) {
			a.Logger.Warn("skipping journals of unknown user", zap.String("user_id", userID))
			rep.Skipped = append(rep.Skipped, userID)
			continue
		} else if err != nil {
			return rep, err
		}
		r, err := a.Imports.Import(ctx, userID, services.ImportPayload{Journals: keyed[userID]})
		if err != nil {
			return rep, fmt.Errorf("import journals of %s: %w", userID, err)
		}
		rep.Imported.Journals += r.Journals
		rep.Imported.Trades += r.Trades
	}
	return rep, nil
}

