package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/database"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/spf13/cobra"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

func newUsersCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user with its id",
		Long: `List every user ordered by name. The ids are what the register and
cancel endpoints expect as user_id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logging)

			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			return printUsers(ctx, cmd.OutOrStdout(), repository.NewStore(pool))
		},
	}
}

func printUsers(ctx context.Context, out io.Writer, store userLister) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found. Run the seed command first.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tID")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Name, u.Email, u.ID)
	}
	return tw.Flush()
}
