package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yegors/preflight/internal/planner"
	"github.com/yegors/preflight/internal/resolver"
)

func briefCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brief [departure] [destination]",
		Short: "Get a go/no-go briefing for a route",
		Long: `Resolve both airport codes against the catalog and request a briefing
evaluated against the stored pilot preferences.

Examples:
  preflight brief KSFO KLAX
  preflight brief ksql kmry --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := g.newLogger()
			api := g.client(log)

			p := planner.New(api.SearchAirports, api, g.store(log),
				planner.WithAutoFetch(true),
				planner.WithLogger(log),
				planner.WithResolverOptions(resolver.WithDelay(time.Millisecond)),
			)
			defer p.Close()

			p.SetDeparture(args[0])
			p.SetDestination(args[1])

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			s, err := p.Wait(ctx, briefingSettled)
			if err != nil {
				return fmt.Errorf("timed out waiting for briefing: %w", err)
			}

			switch s.Phase {
			case planner.Loaded:
				if g.jsonOut {
					return writeJSON(cmd.OutOrStdout(), s.Briefing)
				}
				renderBriefing(cmd.OutOrStdout(), s.Briefing)
				return nil
			case planner.Errored:
				return fmt.Errorf("briefing failed: %s", s.Err)
			default:
				return unresolvedError(s)
			}
		},
	}
	return cmd
}

// briefingSettled holds once a briefing arrived, failed, or can never be
// requested because an airport did not resolve
func briefingSettled(s planner.State) bool {
	switch s.Phase {
	case planner.Loaded, planner.Errored:
		return true
	case planner.Idle:
		return s.Departure.Input != "" && s.Destination.Input != "" &&
			!s.Departure.Pending && !s.Destination.Pending
	}
	return false
}

func unresolvedError(s planner.State) error {
	for _, field := range []resolver.State{s.Departure, s.Destination} {
		if !field.Valid {
			return fmt.Errorf("unknown airport: %s", field.Input)
		}
	}
	return fmt.Errorf("route %s -> %s is not ready", s.Departure.Input, s.Destination.Input)
}
