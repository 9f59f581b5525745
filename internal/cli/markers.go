package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/store"
)

func (a *app) markerCmd() *cobra.Command {
	var minStrength float64
	cmd := &cobra.Command{
		Use:   "marker",
		Short: "Somatic markers: learned gut feelings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				markers, err := m.Markers(cmd.Context(), minStrength)
				if err != nil {
					return err
				}
				printMarkers(cmd, markers)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&minStrength, "min-strength", 0, "minimum marker strength")

	cmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Derive markers from recurring cues in memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				markers, err := m.ScanMarkers(cmd.Context())
				if err != nil {
					return err
				}
				printMarkers(cmd, markers)
				return nil
			})
		},
	})

	var lookupMin float64
	lookup := &cobra.Command{
		Use:   "lookup <situation...>",
		Short: "Check a situation for a gut feeling",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				sig, err := m.GutFeeling(cmd.Context(), strings.Join(args, " "), lookupMin)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if sig == nil {
					fmt.Fprintln(out, "No gut feeling.")
					return nil
				}
				fmt.Fprintf(out, "%q: valence %s, strength %.2f\n", sig.Cue, signed(sig.Valence), sig.Strength)
				return nil
			})
		},
	}
	lookup.Flags().Float64Var(&lookupMin, "min-strength", 0, "minimum marker strength (default from config)")
	cmd.AddCommand(lookup)

	cmd.AddCommand(&cobra.Command{
		Use:   "reinforce <cue> <valence>",
		Short: "Blend an observed outcome into a marker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("valence %q: not a number", args[1])
			}
			return a.withManager(func(m *engine.Manager) error {
				mk, err := m.ReinforceMarker(cmd.Context(), args[0], outcome)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valence %s, strength %.2f, reinforced %d times\n",
					mk.CuePattern, signed(mk.Valence), mk.Strength, mk.ReinforcementCount)
				return nil
			})
		},
	})
	return cmd
}

func printMarkers(cmd *cobra.Command, markers []store.Marker) {
	out := cmd.OutOrStdout()
	if len(markers) == 0 {
		fmt.Fprintln(out, "No markers.")
		return
	}
	for _, mk := range markers {
		fmt.Fprintf(out, "%-20s valence %s  strength %.2f  support %d\n",
			mk.CuePattern, signed(mk.Valence), mk.Strength, mk.SupportCount)
	}
}

func (a *app) traitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trait",
		Short: "Identity traits",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List traits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				traits, err := m.Traits(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(traits) == 0 {
					fmt.Fprintln(out, "No traits.")
				}
				for _, t := range traits {
					fmt.Fprintf(out, "%-24s %.2f\n", t.Name, t.Strength)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <strength>",
		Short: "Create or update a trait",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strength, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("strength %q: not a number", args[1])
			}
			return a.withManager(func(m *engine.Manager) error {
				if err := m.SetTrait(cmd.Context(), args[0], strength); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %.2f\n", args[0], strength)
				return nil
			})
		},
	})
	return cmd
}
