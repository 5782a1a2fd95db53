package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dgallion1/atlasgen/internal/api"
	"github.com/dgallion1/atlasgen/internal/pipeline"
	"github.com/dgallion1/atlasgen/internal/watch"
)

func serveCmd(a *app) *cobra.Command {
	var watchInputs bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest tree over HTTP and rebuild on demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return a.serve(cmd.Context(), watchInputs)
		},
	}
	cmd.Flags().BoolVar(&watchInputs, "watch", true, "Rebuild when input files change")
	return cmd
}

func (a *app) serve(parent context.Context, watchInputs bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sinks, closeSinks, err := a.sinks(a.cfg.ImportAPIURL != "", a.cfg.Blob.Enabled())
	if err != nil {
		return err
	}
	defer closeSinks()

	orch := pipeline.NewOrchestrator(a.cfg, pipeline.NewMetrics(reg), a.log, sinks...)
	orch.Start(ctx)
	defer orch.Stop()

	if _, err := orch.Submit("startup"); err != nil {
		return err
	}

	if watchInputs {
		w, err := watch.New(a.cfg.InputGlob, a.cfg.WatchDebounce, a.log)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Stop()
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		go func() {
			for c := range w.Changes() {
				if _, err := orch.Submit("watch"); err != nil {
					a.log.Warn("rebuild after change not queued", "paths", len(c.Paths), "error", err)
				}
			}
		}()
	}

	srv, err := api.NewServer(orch, reg, a.log, a.cfg)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting atlasgen", "port", a.cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
