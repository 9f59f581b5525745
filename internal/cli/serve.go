package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/server"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe()
		},
	}
}

func (a *app) runServe() error {
	metrics := server.NewMetrics()
	mgr, db, err := a.open(engine.WithObserver(metrics))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catchUpDecay(ctx, mgr)

	srv := server.New(db, mgr, VersionString(), metrics)
	addr := a.cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("db", db.Path).
			Str("llm", a.cfg.LLM.Provider).Bool("classifier", a.cfg.Classifier.Enabled).
			Msg("sable serving")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// catchUpDecay runs one memory decay pass before serving so memories idle
// since the last session are archived up front. Later passes happen on read
// or when a client triggers them.
func catchUpDecay(ctx context.Context, mgr *engine.Manager) {
	rep, err := mgr.DecayMemories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("startup memory decay failed")
		return
	}
	log.Debug().Int("processed", rep.Processed).Int("archived", rep.Archived).Dur("took", rep.Duration).Msg("startup memory decay")
}
