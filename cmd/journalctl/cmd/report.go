package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tradejournal/internal/app"
	"tradejournal/internal/models"
	"tradejournal/internal/services"
	"tradejournal/internal/stats"
)

type reportOptions struct {
	email   string
	journal string
	from    string
	to      string
}

type report struct {
	Email     string                     `json:"email"`
	Journal   string                     `json:"journal"`
	Currency  string                     `json:"currency"`
	Summary   stats.Summary              `json:"summary"`
	Playbooks []services.PlaybookSummary `json:"playbooks"`
}

func newReportCmd(rc *RootConfig) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print trading statistics for an account",
		Long: `report prints the dashboard statistics of one account, for one journal (by id or
name) or for all journals combined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.email == "" {
				return errors.New("--email is required")
			}
			return rc.open(cmd, nil, func(a *app.App) error {
				rep, err := buildReport(cmd.Context(), a, opts)
				if err != nil {
					return err
				}
				return rc.render(cmd.OutOrStdout(), rep, func(w io.Writer) error {
					return writeReport(w, rep)
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.journal, "journal", "", "journal id or name (default: all journals)")
	cmd.Flags().StringVar(&opts.from, "from", "", "first entry date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "last entry date, YYYY-MM-DD")
	return cmd
}

func buildReport(ctx context.Context, a *app.App, opts reportOptions) (*report, error) {
	u, err := a.Users.GetByEmail(ctx, opts.email)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", opts.email, err)
	}

	q := services.DashboardQuery{}
	rep := &report{Email: u.Email, Journal: "all journals"}
	if opts.journal != "" {
		j, err := findJournal(ctx, a, u.ID, opts.journal)
		if err != nil {
			return nil, err
		}
		q.JournalID = j.ID
		rep.Journal = j.Name
	}
	if q.From, err = parseDay(opts.from, false); err != nil {
		return nil, err
	}
	if q.To, err = parseDay(opts.to, true); err != nil {
		return nil, err
	}

	dash, err := a.Analytics.Dashboard(ctx, u.ID, q)
	if err != nil {
		return nil, err
	}
	rep.Currency = dash.Currency
	rep.Summary = dash.Summary
	// equity curves are for charts
	rep.Summary.EquityCurve = nil

	pbs, err := a.Playbooks.List(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(pbs))
	for _, pb := range pbs {
		names[pb.ID] = pb.Name
	}
	for _, ps := range dash.Playbooks {
		name, ok := names[ps.PlaybookID]
		if !ok {
			name = ps.PlaybookID
		}
		rep.Playbooks = append(rep.Playbooks, services.PlaybookSummary{Name: name, PlaybookStats: ps})
	}
	return rep, nil
}

func findJournal(ctx context.Context, a *app.App, userID, ref string) (*models.Journal, error) {
	js, err := a.Journals.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range js {
		if js[i].ID == ref || strings.EqualFold(js[i].Name, ref) {
			return &js[i], nil
		}
	}
	return nil, fmt.Errorf("no journal %q", ref)
}

func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func writeReport(w io.Writer, rep *report) error {
	s := rep.Summary
	money := func(v float64) string { return stats.FormatMoney(v, rep.Currency) }

	fmt.Fprintf(w, "%s, %s\n\n", rep.Email, rep.Journal)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Trades\t%d (%d open, %d closed)\n", s.TotalTrades, s.OpenTrades, s.ClosedTrades)
	fmt.Fprintf(tw, "Win rate\t%.1f%% (%d W / %d L / %d BE)\n", s.WinRate, s.Wins, s.Losses, s.BreakEven)
	fmt.Fprintf(tw, "Net P/L\t%s\n", money(s.NetPL))
	fmt.Fprintf(tw, "Profit factor\t%s\n", ratio(s.ProfitFactor))
	fmt.Fprintf(tw, "Average win / loss\t%s / %s\n", money(s.AverageWin), money(s.AverageLoss))
	fmt.Fprintf(tw, "Largest win / loss\t%s / %s\n", money(s.LargestWin), money(s.LargestLoss))
	fmt.Fprintf(tw, "Expectancy\t%s\n", money(s.Expectancy))
	fmt.Fprintf(tw, "Fees\t%s\n", money(s.TotalFees))
	fmt.Fprintf(tw, "Max drawdown\t%s (%.2f%%)\n", money(s.MaxDrawdown), s.MaxDrawdownPct)
	fmt.Fprintf(tw, "Return\t%.2f%% on %s\n", s.ReturnPct, money(s.InitialCapital))
	fmt.Fprintf(tw, "Streak\t%+d (best %d, worst %d)\n", s.CurrentStreak, s.MaxWinStreak, s.MaxLossStreak)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Playbooks) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYBOOK\tTRADES\tWIN RATE\tPF\tNET P/L")
	for _, pb := range rep.Playbooks {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%s\t%s\n", pb.Name, pb.Trades, pb.WinRate, ratio(pb.ProfitFactor), money(pb.NetPL))
	}
	return tw.Flush()
}

func ratio(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}
