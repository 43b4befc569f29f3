package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/database"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/service"
	"github.com/spf13/cobra"
)

var seedUsers = []struct{ name, email string }{
	{"John Doe", "john@example.com"},
	{"Jane Smith", "jane@example.com"},
	{"Bob Wilson", "bob@example.com"},
}

// seedStore is the storage surface seed needs.
type seedStore interface {
	service.Store
	userLister
	UpsertUser(ctx context.Context, name, email string) (*model.User, error)
}

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample users and events for local development",
		Long: `Insert three sample users and two upcoming events, then list every user
with its id.

Users are matched on email, so running seed twice does not duplicate them.
Sample events are only created when no upcoming events exist.`,
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

			store := repository.NewStore(pool, repository.WithLockTimeout(cfg.Database.LockTimeout))
			svc := service.NewEventService(store, clock.NewSystem(), logger)
			return seed(ctx, cmd.OutOrStdout(), store, svc, time.Now().UTC())
		},
	}
}

func seed(ctx context.Context, out io.Writer, store seedStore, svc *service.EventService, now time.Time) error {
	for _, u := range seedUsers {
		if _, err := store.UpsertUser(ctx, u.name, u.email); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}
	if err := printUsers(ctx, out, store); err != nil {
		return err
	}

	upcoming, err := store.CountUpcoming(ctx, now)
	if err != nil {
		return err
	}
	if upcoming > 0 {
		fmt.Fprintf(out, "Skipping events: %d upcoming event(s) already present\n", upcoming)
		return nil
	}

	conference, workshop := "Convention Center", "Training Room A"
	events := []model.CreateEventRequest{
		{Title: "Tech Conference 2025", StartsAt: now.Add(7 * 24 * time.Hour), Location: &conference, Capacity: 100},
		{Title: "Workshop: Node.js Advanced", StartsAt: now.Add(14 * 24 * time.Hour), Location: &workshop, Capacity: 25},
	}
	fmt.Fprintln(out, "Events:")
	for _, req := range events {
		event, err := svc.CreateEvent(ctx, req)
		if err != nil {
			return fmt.Errorf("seed event %q: %w", req.Title, err)
		}
		fmt.Fprintf(out, "  %-28s %s\n", event.Title, event.ID)
	}
	return nil
}
