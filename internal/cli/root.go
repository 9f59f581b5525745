// Package cli implements the sable command line.
package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/config"
	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/llm"
	"github.com/lazypower/sable/internal/logbook"
	"github.com/lazypower/sable/internal/logging"
	"github.com/lazypower/sable/internal/store"
)

// app carries the resolved configuration through one invocation.
type app struct {
	dbPath     string
	configPath string
	cfg        config.Config
	quiet      bool // hooks: warn and above only
}

// Execute runs the sable command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sable",
		Short: "Persistent decaying emotional state for AI agents",
		Long: "Sable keeps a body, emotions, memories and gut feelings that fade with time.\n" +
			"State lives in a single SQLite database; the server exposes it to Claude Code hooks.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (default ~/.sable/sable.db)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.sable/config.yaml)")

	root.AddCommand(
		a.statusCmd(),
		a.feelCmd(),
		a.bodyCmd(),
		a.eventCmd(),
		a.memoriesCmd(),
		a.recallCmd(),
		a.decayCmd(),
		a.markerCmd(),
		a.traitCmd(),
		a.analyzeCmd(),
		a.logbookCmd(),
		a.configCmd(),
		a.serveCmd(),
		a.hookCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.quiet {
		cfg.Log.Level = "warn"
	}
	a.cfg = cfg
	logging.Setup(cfg.Log)
	return nil
}

// open opens the database and builds a manager over it. Callers must run the
// returned close function.
func (a *app) open(opts ...engine.Option) (*engine.Manager, *store.DB, error) {
	path, err := a.cfg.DatabasePath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	base := []engine.Option{engine.WithConfig(a.cfg)}

	classifier, err := llm.NewClassifier(a.cfg)
	if err != nil {
		log.Warn().Err(err).Msg("classifier unavailable, analysis will be neutral")
	} else if classifier != nil {
		base = append(base, engine.WithClassifier(classifier))
	}

	if dir, err := a.cfg.LogbookDir(); err == nil {
		base = append(base, engine.WithLogbook(logbook.New(dir)))
	} else {
		log.Warn().Err(err).Msg("logbook unavailable")
	}

	return engine.New(db, append(base, opts...)...), db, nil
}

// withManager opens the manager for the duration of fn.
func (a *app) withManager(fn func(m *engine.Manager) error) error {
	m, db, err := a.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(m)
}

func (a *app) now() time.Time {
	return time.Now().UTC()
}
