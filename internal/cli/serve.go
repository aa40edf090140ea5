package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/noahxzhu/autotab/internal/config"
	"github.com/noahxzhu/autotab/internal/logging"
	"github.com/noahxzhu/autotab/internal/web"
	"github.com/noahxzhu/autotab/internal/worker"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				a.cfg.Server.Port = listen
			}
			return serve(cmd.Context(), a, opts)
		},
	}
	cmd.Flags().String("listen", "", "HTTP listen address (overrides server.port)")
	return cmd
}

func serve(parent context.Context, a *app, opts *options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alarms := alarm.NewService()
	w := a.worker(alarms)

	a.store.OnChange(func(keys []string) {
		log.Debug().Strs("keys", keys).Msg("Store changed")
	})
	w.SetOnTick(func(r worker.Report) {
		log.Info().Int("fired", len(r.Fired)).Int("opened", len(r.Opened)).Int("failed", len(r.Failed)).Msg("Tick complete")
	})
	if a.loader.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload config")
			return
		}
		if opts.logLevel == "" {
			logging.SetLevel(cfg.Log.Level)
		}
		log.Info().Str("level", cfg.Log.Level).Msg("Config reloaded")
	}) {
		log.Debug().Str("file", a.loader.File()).Msg("Watching config file")
	}

	alarms.Start()
	defer alarms.Stop()

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Port,
		Handler:           web.NewServer(a.store, w),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Str("port", a.cfg.Server.Port).Str("url", "http://localhost"+a.cfg.Server.Port).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	err := g.Wait()
	log.Info().Msg("Server exited")
	return err
}
