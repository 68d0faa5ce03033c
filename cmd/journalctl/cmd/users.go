package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tradejournal/internal/app"
	"tradejournal/internal/models"
)

func newUsersCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and approve accounts",
	}
	cmd.AddCommand(newUsersListCmd(rc), newUsersApproveCmd(rc))
	return cmd
}

func newUsersListCmd(rc *RootConfig) *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.open(cmd, nil, func(a *app.App) error {
				users, err := a.Users.List(cmd.Context())
				if err != nil {
					return err
				}
				if pendingOnly {
					filtered := users[:0]
					for _, u := range users {
						if !u.IsApproved {
							filtered = append(filtered, u)
						}
					}
					users = filtered
				}
				return rc.render(cmd.OutOrStdout(), users, func(w io.Writer) error {
					return writeUserTable(w, users)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only accounts waiting for approval")
	return cmd
}

func writeUserTable(w io.Writer, users []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tADMIN\tAPPROVED\tCREATED\tLAST LOGIN")
	for _, u := range users {
		last := "-"
		if u.LastLogin != nil {
			last = u.LastLogin.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%s\n",
			u.ID, u.Email, u.IsAdmin, u.IsApproved, u.CreatedAt.Format(time.RFC3339), last)
	}
	return tw.Flush()
}

func newUsersApproveCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <email>",
		Short: "Approve a pending account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.open(cmd, nil, func(a *app.App) error {
				u, err := a.Users.GetByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find %s: %w", args[0], err)
				}
				u, err = a.Users.Approve(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				return rc.render(cmd.OutOrStdout(), u, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "approved %s (%s)\n", u.Email, u.ID)
					return err
				})
			})
		},
	}
}
