package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func airportsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "airports [prefix]",
		Short: "List airport codes starting with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			codes, err := g.client(g.newLogger()).SearchAirports(ctx, args[0])
			if err != nil {
				return fmt.Errorf("airport search failed: %w", err)
			}

			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), codes)
			}
			if len(codes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching airports")
				return nil
			}
			for _, code := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
}
