package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/engine"
)

func (a *app) statusCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current emotional state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, statusFormats); err != nil {
				return err
			}
			return a.withManager(func(m *engine.Manager) error {
				ctx := cmd.Context()
				st, err := m.CurrentState(ctx)
				if err != nil {
					return err
				}
				stats, err := m.Stats(ctx)
				if err != nil {
					return err
				}
				return renderStatus(cmd.OutOrStdout(), st, stats, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "rich", "output format: rich, markdown, brief, json")
	return cmd
}

func (a *app) feelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feel <kind> <intensity> [cause...]",
		Short: "Add an emotion",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			intensity, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("intensity %q: not a number", args[1])
			}
			cause := strings.Join(args[2:], " ")
			return a.withManager(func(m *engine.Manager) error {
				st, em, err := m.AddEmotion(cmd.Context(), args[0], intensity, cause)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added %s at %.2f\n", em.Kind, em.Intensity)
				fmt.Fprintln(out, briefStatus(st))
				return nil
			})
		},
	}
}

func (a *app) bodyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "body",
		Short: "Inspect or adjust the body",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "adjust key=delta...",
		Short: "Apply deltas to body parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args)
			if err != nil {
				return err
			}
			return a.withManager(func(m *engine.Manager) error {
				st, err := m.ApplyBodyChanges(cmd.Context(), changes)
				if err != nil {
					return err
				}
				return renderStatus(cmd.OutOrStdout(), st, nil, "markdown")
			})
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show stored body snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				snaps, err := m.BodyHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), snaps)
			})
		},
	}
	history.Flags().IntVarP(&limit, "limit", "n", 20, "maximum snapshots")
	cmd.AddCommand(history)
	return cmd
}

// parseAssignments reads key=value pairs into a map.
func parseAssignments(args []string) (map[string]float64, error) {
	out := make(map[string]float64, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%q: want key=value", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: value is not a number", arg)
		}
		out[strings.TrimSpace(key)] += v
	}
	return out, nil
}

func (a *app) eventCmd() *cobra.Command {
	var (
		impact   []string
		context  string
		role     string
		identity float64
		noMemory bool
	)
	cmd := &cobra.Command{
		Use:   "event <description...>",
		Short: "Record an event and, if significant, a memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := parseAssignments(impact)
			if err != nil {
				return err
			}
			in := engine.EventInput{
				Description:   strings.Join(args, " "),
				Context:       context,
				Impact:        im,
				NarrativeRole: role,
			}
			if noMemory {
				encode := false
				in.EncodeAsMemory = &encode
			}
			if cmd.Flags().Changed("identity") {
				in.IdentityRelevance = &identity
			}
			return a.withManager(func(m *engine.Manager) error {
				res, err := m.AddEvent(cmd.Context(), in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Event #%d recorded\n", res.Event.ID)
				if len(res.Emotions) > 0 {
					var kinds []string
					for _, e := range res.Emotions {
						kinds = append(kinds, fmt.Sprintf("%s %.2f", e.Kind, e.Intensity))
					}
					fmt.Fprintf(out, "Triggered: %s\n", strings.Join(kinds, ", "))
				}
				if res.Memory != nil {
					fmt.Fprintf(out, "Encoded as memory #%d (salience %.2f)\n", res.Memory.ID, res.Memory.Salience)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&impact, "impact", "i", nil, "emotional impact kind=intensity (repeatable)")
	f.StringVar(&context, "context", "", "surrounding context")
	f.StringVar(&role, "role", "", "narrative role")
	f.Float64Var(&identity, "identity", 0, "identity relevance in [0,1]")
	f.BoolVar(&noMemory, "no-memory", false, "never encode as a memory")
	return cmd
}

func (a *app) memoriesCmd() *cobra.Command {
	var (
		q      engine.MemoryQuery
		since  string
		until  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Query memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, []string{"text", "json"}); err != nil {
				return err
			}
			var err error
			if q.Since, err = engine.ParseTime("since", since); err != nil {
				return err
			}
			if q.Until, err = engine.ParseTime("until", until); err != nil {
				return err
			}
			return a.withManager(func(m *engine.Manager) error {
				mems, err := m.QueryMemories(cmd.Context(), q)
				if err != nil {
					return err
				}
				return renderMemories(cmd.OutOrStdout(), mems, a.now(), format)
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&q.MinSalience, "min-salience", 0, "minimum salience")
	f.Float64Var(&q.MinIdentityRelevance, "min-identity", 0, "minimum identity relevance")
	f.StringVarP(&q.Emotion, "emotion", "e", "", "associated emotion kind")
	f.StringVarP(&q.Search, "search", "s", "", "keyword in the description")
	f.StringVar(&since, "since", "", "occurred at or after (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&until, "until", "", "occurred at or before (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&q.Sort, "sort", "salience", "salience, recency or access_count")
	f.IntVarP(&q.Limit, "limit", "n", 10, "maximum results")
	f.BoolVar(&q.IncludeArchived, "archived", false, "include archived memories")
	f.StringVarP(&format, "format", "f", "text", "output format: text, json")

	cmd.AddCommand(a.memoriesContextCmd())
	return cmd
}

func (a *app) memoriesContextCmd() *cobra.Command {
	var opts engine.ContextOptions
	d := engine.DefaultContextOptions()
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show the memories that would be surfaced at session start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				res, err := m.ContextualMemories(cmd.Context(), opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				now := a.now()
				fmt.Fprintln(out, titleStyle.Render("Recent"))
				renderMemories(out, res.Recent, now, "text")
				fmt.Fprintln(out, titleStyle.Render("Significant"))
				return renderMemories(out, res.Salient, now, "text")
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.MaxTotal, "max", d.MaxTotal, "maximum memories")
	f.IntVar(&opts.RecentCount, "recent", d.RecentCount, "recent memories")
	f.IntVar(&opts.SalientCount, "salient", d.SalientCount, "salient memories")
	f.IntVar(&opts.DaysForRecent, "days", d.DaysForRecent, "days counted as recent")
	return cmd
}

func (a *app) recallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recall <id>",
		Short: "Recall one memory, strengthening it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid memory id %q", args[0])
			}
			return a.withManager(func(m *engine.Manager) error {
				mem, err := m.RecallMemory(cmd.Context(), id)
				if err != nil {
					return err
				}
				renderMemory(cmd.OutOrStdout(), mem, a.now())
				return nil
			})
		},
	}
}

func (a *app) decayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decay",
		Short: "Run the memory decay pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *engine.Manager) error {
				rep, err := m.DecayMemories(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Decayed %d memories, archived %d (%s)\n",
					rep.Processed, rep.Archived, rep.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}
