// Command venuectl runs the operator batch jobs: insight generation, rating
// refresh and score recalculation, and ownership grants.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/app"
	"venue_reputation/internal/popularity"
	"venue_reputation/internal/shared"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// summary is what every batch prints on completion. Per-venue failures are
// counted here and do not change the exit code.
type summary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	Distribution map[popularity.Tier]int `json:"distribution,omitempty"`
}

func printSummary(cmd *cobra.Command, s summary) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "venuectl",
		Short:         "Venue reputation batch jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(insightsCmd(), ratingsCmd(), ownersCmd())
	return cmd
}

// withDeps loads configuration, installs the logger and opens the shared
// collaborators for the duration of fn.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, cfg shared.Config, d *shared.Deps) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	d, err := shared.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(ctx, cfg, d)
}

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "insights", Short: "Bilingual venue insights"}

	var delay time.Duration
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate insights for every venue that has none",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, cfg shared.Config, d *shared.Deps) error {
				if d.Generator == nil {
					return errors.New("GEMINI_API_KEY is required for insight generation")
				}
				if !cmd.Flags().Changed("delay") {
					delay = cfg.BatchDelay
				}
				guard := app.NewOwnershipGuard(d.Store)
				svc := app.NewInsightService(d.Store, d.Generator, guard, d.Cache, cfg.CacheTTL)
				res, err := svc.GenerateAll(ctx, delay)
				if err != nil {
					return err
				}
				return printSummary(cmd, summary{Processed: res.Processed, Succeeded: res.Succeeded(), Failed: res.Errored})
			})
		},
	}
	generate.Flags().DurationVar(&delay, "delay", time.Second, "pause between generations (defaults to BATCH_DELAY_MS)")
	cmd.AddCommand(generate)
	return cmd
}

func ratingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ratings", Short: "External ratings and popularity scores"}

	var delay time.Duration
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Look up Google ratings for venues that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, cfg shared.Config, d *shared.Deps) error {
				if d.Lookup == nil {
					return errors.New("PLACES_API_KEY is required for rating refresh")
				}
				if !cmd.Flags().Changed("delay") {
					delay = cfg.BatchDelay
				}
				res, err := app.NewRatingsService(d.Store, d.Lookup, d.Cache).RefreshMissing(ctx, delay)
				if err != nil {
					return err
				}
				return printSummary(cmd, summary{Processed: res.Processed, Succeeded: res.Succeeded(), Failed: res.Errored})
			})
		},
	}
	refresh.Flags().DurationVar(&delay, "delay", time.Second, "pause between lookups (defaults to BATCH_DELAY_MS)")

	recalc := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute every popularity score from stored sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, cfg shared.Config, d *shared.Deps) error {
				res, err := app.NewRatingsService(d.Store, nil, d.Cache).RecalculateAll(ctx)
				if err != nil {
					return err
				}
				return printSummary(cmd, summary{
					Processed:    res.Processed,
					Succeeded:    res.Processed - res.Errored,
					Failed:       res.Errored,
					Distribution: res.Distribution,
				})
			})
		},
	}

	cmd.AddCommand(refresh, recalc)
	return cmd
}

func ownersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "owners", Short: "Venue ownership"}

	var req app.GrantOwnershipRequest
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Make a user an owner or manager of a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, cfg shared.Config, d *shared.Deps) error {
				if err := app.NewOwnershipGuard(d.Store).GrantOwnership(ctx, req); err != nil {
					return err
				}
				log.Info().Str("user_id", req.UserID).Str("venue_id", req.VenueID).Str("role", req.Role).Msg("ownership granted")
				return printSummary(cmd, summary{Processed: 1, Succeeded: 1})
			})
		},
	}
	grant.Flags().StringVar(&req.UserID, "user", "", "user id (token subject)")
	grant.Flags().StringVar(&req.VenueID, "venue", "", "venue id")
	grant.Flags().StringVar(&req.Role, "role", "owner", "owner or manager")
	_ = grant.MarkFlagRequired("user")
	_ = grant.MarkFlagRequired("venue")

	cmd.AddCommand(grant)
	return cmd
}
