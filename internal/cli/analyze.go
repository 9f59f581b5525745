package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/transcript"
)

func (a *app) analyzeCmd() *cobra.Command {
	var (
		user, assistant, path string
		asJSON                bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify one conversation exchange and fold it into the state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := transcript.Exchange{User: user, Assistant: assistant}
			if path != "" {
				turns, err := transcript.ParseFile(path)
				if err != nil {
					return err
				}
				last := transcript.LastExchange(turns)
				if ex.User == "" {
					ex.User = last.User
				}
				if ex.Assistant == "" {
					ex.Assistant = last.Assistant
				}
			}
			if ex.Empty() {
				return errors.New("nothing to analyze: pass --user, --assistant or --transcript")
			}

			return a.withManager(func(m *engine.Manager) error {
				rep, err := m.AnalyzeExchange(cmd.Context(), ex)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				printAnalysis(cmd, rep)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&user, "user", "", "user message")
	f.StringVar(&assistant, "assistant", "", "assistant reply")
	f.StringVar(&path, "transcript", "", "read the last exchange from a transcript file")
	f.BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, rep *engine.AnalysisReport) {
	out := cmd.OutOrStdout()
	for _, fb := range rep.Fallbacks {
		fmt.Fprintln(out, mutedStyle.Render("classifier fallback: "+fb))
	}
	if len(rep.Emotions) == 0 {
		fmt.Fprintln(out, "No emotions triggered.")
	} else {
		var parts []string
		for _, e := range rep.Emotions {
			parts = append(parts, fmt.Sprintf("%s %.2f", e.Kind, e.Intensity))
		}
		fmt.Fprintf(out, "Triggered: %s\n", strings.Join(parts, ", "))
	}
	if rep.Memory != nil {
		fmt.Fprintf(out, "Encoded as memory #%d (salience %.2f)\n", rep.Memory.ID, rep.Memory.Salience)
	}
	if rep.State != nil {
		fmt.Fprintln(out, briefStatus(rep.State))
	}
}
