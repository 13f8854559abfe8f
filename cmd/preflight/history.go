package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently served briefings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			records, err := g.client(g.newLogger()).RecentBriefings(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to fetch history: %w", err)
			}

			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No briefings yet")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %s -> %s  %-6s  %.1f NM\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Departure, r.Destination, verdict(r.IsGo), r.DistanceNM)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum briefings")
	return cmd
}
