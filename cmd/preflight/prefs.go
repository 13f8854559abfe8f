package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yegors/preflight/internal/preferences"
)

func prefsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the pilot preferences used for briefings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := g.store(g.newLogger()).Load()
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), prefs)
			}
			renderPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change one preference",
		Long: `Change one preference and save the profile.

Keys:
  flight_rules                         VFR or IFR
  ratings                              comma separated, e.g. PRIVATE,INSTRUMENT
  day.visibility_sm                    statute miles
  day.ceiling_ft                       feet
  day.wind_speed_kts                   knots
  day.crosswind_component_kts          knots
  night.*                              as for day`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := g.store(g.newLogger())
			prefs := store.Load()
			if err := applySetting(&prefs, args[0], args[1]); err != nil {
				return err
			}
			if err := store.Save(prefs); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}
			renderPreferences(cmd.OutOrStdout(), store.Load())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := g.store(g.newLogger())
			if err := store.Reset(); err != nil {
				return fmt.Errorf("failed to reset preferences: %w", err)
			}
			renderPreferences(cmd.OutOrStdout(), store.Load())
			return nil
		},
	})

	return cmd
}

// applySetting changes the preference named by key. Values are checked here
// so a typo is reported instead of silently falling back to a default.
func applySetting(prefs *preferences.PilotPreferences, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "flight_rules":
		rules := preferences.FlightRules(strings.ToUpper(value))
		if rules != preferences.VFR && rules != preferences.IFR {
			return fmt.Errorf("flight_rules must be VFR or IFR, got %q", value)
		}
		prefs.FlightRules = rules
		return nil
	case "ratings":
		prefs.Ratings = nil
		for _, r := range strings.Split(value, ",") {
			if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
				prefs.Ratings = append(prefs.Ratings, r)
			}
		}
		return nil
	}

	period, field, ok := strings.Cut(key, ".")
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}

	var minima *preferences.Minima
	switch period {
	case "day":
		minima = &prefs.DayMinimums
	case "night":
		minima = &prefs.NightMinimums
	default:
		return fmt.Errorf("unknown preference %q", key)
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("%s must be a non-negative number, got %q", key, value)
	}

	switch field {
	case "visibility_sm":
		minima.VisibilitySM = n
	case "ceiling_ft":
		minima.CeilingFt = n
	case "wind_speed_kts":
		minima.WindSpeedKts = n
	case "crosswind_component_kts":
		minima.CrosswindComponentKts = n
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	return nil
}

func renderPreferences(w io.Writer, prefs preferences.PilotPreferences) {
	fmt.Fprintf(w, "Flight rules: %s\n", prefs.FlightRules)
	fmt.Fprintf(w, "Ratings:      %s\n", strings.Join(prefs.Ratings, ", "))
	for _, period := range []struct {
		name   string
		minima preferences.Minima
	}{{"Day", prefs.DayMinimums}, {"Night", prefs.NightMinimums}} {
		m := period.minima
		fmt.Fprintf(w, "%-5s  visibility %g SM, ceiling %g ft, wind %g kt, crosswind %g kt\n",
			period.name, m.VisibilitySM, m.CeilingFt, m.WindSpeedKts, m.CrosswindComponentKts)
	}
}
