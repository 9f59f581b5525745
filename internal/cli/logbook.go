package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/logbook"
)

func (a *app) logbookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logbook",
		Short: "Reflective journal entries linked to memories",
	}
	cmd.AddCommand(a.logbookWriteCmd(), a.logbookListCmd(), a.logbookSearchCmd(), a.logbookShowCmd())
	return cmd
}

func (a *app) book() (*logbook.Book, error) {
	dir, err := a.cfg.LogbookDir()
	if err != nil {
		return nil, fmt.Errorf("resolve logbook dir: %w", err)
	}
	return logbook.New(dir), nil
}

func (a *app) logbookWriteCmd() *cobra.Command {
	var e logbook.Entry
	cmd := &cobra.Command{
		Use:   "write <title...>",
		Short: "Write an entry, linking it to a memory with --memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.Title = strings.Join(args, " ")
			if e.Experience == "" && e.Reflection == "" {
				return errors.New("an entry needs --experience or --reflection")
			}
			return a.withManager(func(m *engine.Manager) error {
				written, err := m.WriteLogbook(cmd.Context(), e)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", written.Path)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&e.MemoryID, "memory", 0, "memory id to link")
	f.StringVar(&e.Context, "context", "", "what was happening")
	f.StringVar(&e.Experience, "experience", "", "what it was like")
	f.StringVar(&e.Reflection, "reflection", "", "what it means")
	f.StringVar(&e.Connections, "connections", "", "related memories or entries")
	f.StringVar(&e.FutureImplications, "future", "", "what to carry forward")
	f.StringVar(&e.NarrativeRole, "role", "", "narrative role")
	f.StringArrayVarP(&e.Tags, "tag", "t", nil, "tag (repeatable)")
	return cmd
}

func (a *app) logbookListCmd() *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.book()
			if err != nil {
				return err
			}
			entries, err := b.List(tag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  %s\n", e.Path, humanize.Time(e.CreatedAt), e.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only entries with this tag")
	return cmd
}

func (a *app) logbookSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Search entry bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.book()
			if err != nil {
				return err
			}
			matches, err := b.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for _, mt := range matches {
				fmt.Fprintf(out, "%s  %s\n  %s\n", mt.Path, mt.Title, mutedStyle.Render(mt.Preview))
			}
			return nil
		},
	}
}

func (a *app) logbookShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <path>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.book()
			if err != nil {
				return err
			}
			e, err := b.Read(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(e.Title))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s  salience %.2f  %s",
				e.CreatedAt.Format("2006-01-02 15:04"), e.Salience, strings.Join(e.Emotions, ", "))))
			for _, s := range []struct{ heading, text string }{
				{"Context", e.Context},
				{"Experience", e.Experience},
				{"Reflection", e.Reflection},
				{"Connections", e.Connections},
				{"Future Implications", e.FutureImplications},
			} {
				if s.text != "" {
					fmt.Fprintf(out, "\n## %s\n%s\n", s.heading, s.text)
				}
			}
			return nil
		},
	}
}
