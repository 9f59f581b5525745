package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/config"
	"github.com/lazypower/sable/internal/hooks"
	"github.com/lazypower/sable/internal/logging"
)

var hookDescriptions = map[string]string{
	"start":  "Handle SessionStart hook",
	"submit": "Handle UserPromptSubmit hook",
	"tool":   "Handle PostToolUse hook",
	"stop":   "Handle Stop hook",
	"end":    "Handle SessionEnd hook",
}

// hookCmd never returns an error: a failing hook must not break the host.
func (a *app) hookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Handle Claude Code hook events",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.quiet = true
			if err := a.load(); err != nil {
				a.cfg = config.Default()
				a.cfg.Log.Level = "warn"
				logging.Setup(a.cfg.Log)
				log.Warn().Err(err).Msg("sable hook: config, using defaults")
			}
			return nil
		},
	}
	for _, event := range hooks.Events {
		cmd.AddCommand(&cobra.Command{
			Use:   event,
			Short: hookDescriptions[event],
			Args:  cobra.ArbitraryArgs,
			Run: func(cmd *cobra.Command, args []string) {
				if !a.cfg.Hooks.Enabled {
					return
				}
				hooks.SetTimeout(a.cfg.Hooks.Timeout)
				hooks.Handle(cmd.Name(), cmd.InOrStdin(), cmd.OutOrStdout())
			},
		})
	}
	return cmd
}
