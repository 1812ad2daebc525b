package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/backend"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/cache"
	cachesqlite "github.com/GxAditya/LinguaSpark-sub001/pkg/cache/sqlite"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/dedup"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/governor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/httpapi"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/ratelimit"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/selector"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the generation governor and admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var sink *monitor.Sink
			if cfg.Monitor.SinkEnabled {
				sink, err = monitor.NewSink(cfg.DBPath, cfg.Monitor.RetentionDays)
				if err != nil {
					return fmt.Errorf("init usage sink: %w", err)
				}
				defer func() { _ = sink.Close() }()
			}

			mon := monitor.New(cfg.Monitor, sink)
			defer func() { _ = mon.Close() }()

			var store *cache.Store
			if cfg.Cache.Enabled {
				var persistent *cachesqlite.Cache
				if cfg.Cache.Persistent {
					persistent, err = cachesqlite.New(cfg.DBPath)
					if err != nil {
						return fmt.Errorf("init persistent cache: %w", err)
					}
				}
				store = cache.New(cfg.Cache.MaxEntries, persistent, cfg.Cache.SweepInterval)
				defer func() { _ = store.Close() }()
			}

			coalescer := dedup.New(cfg.Backend.Timeout, cfg.Dedup.MaxFlightAge, cfg.Dedup.SweepInterval)
			defer func() { _ = coalescer.Close() }()

			var limiter *ratelimit.Limiter
			if cfg.RateLimit.Enabled {
				limiter = ratelimit.New(cfg.RateLimit.Actions, time.Minute)
				defer func() { _ = limiter.Close() }()
			}

			sel := selector.New(cfg.Models, cfg.Monitor.Rates)

			var b backend.Backend
			if cfg.Backend.BaseURL != "" {
				b = backend.NewHTTP(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout)
			} else {
				log.Printf("no backend base_url configured, using placeholder generator")
				b = backend.PlaceholderBackend{}
			}
			retrier := backend.NewRetrier(b, cfg.Backend.MaxRetries, 200*time.Millisecond, backend.Placeholder)

			gov := governor.New(store, coalescer, limiter, mon, sel, retrier, cfg.Cache.TTL)
			api := httpapi.NewServer(gov)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:    cfg.Listen,
				Handler: api.Handler(),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("sparkgov listening on %s", cfg.Listen)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sparkgov.yaml", "path to config file")
	return cmd
}
