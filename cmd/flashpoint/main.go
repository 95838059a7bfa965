package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asifah/flashpoint/internal/assess"
	"github.com/asifah/flashpoint/internal/cache"
	"github.com/asifah/flashpoint/internal/config"
	"github.com/asifah/flashpoint/internal/fetch"
	"github.com/asifah/flashpoint/internal/history"
	"github.com/asifah/flashpoint/internal/logging"
	"github.com/asifah/flashpoint/internal/server"
	"github.com/asifah/flashpoint/internal/store"
)

func main() {
	configPath := flag.String("config", "flashpoint.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.LogDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	lex := cfg.Lexicon()
	fetcher := fetch.New(cfg.Sources, cfg.NewsAPIKey, cfg.WindowDays)
	archive := history.New(st)

	coord := cache.New(st,
		cache.FetchFunc(func(ctx context.Context, target string, now time.Time) ([]assess.Record, error) {
			records, diag, err := fetcher.Fetch(ctx, target, now)
			if diag.Failed > 0 {
				logging.Warn("partial fetch", "target", target, "failed", diag.Failed, "sources", diag.Sources)
			}
			return records, err
		}),
		assess.NewScorer(lex),
		archive,
		cache.Options{
			StaleAfter:   cfg.ScanInterval.Std(),
			FetchTimeout: cfg.FetchTimeout.Std(),
		})

	coord.Start(ctx, cfg.TargetIDs())

	// Expired rows are also dropped lazily on read; this keeps the file
	// from accumulating dead history series.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := st.PurgeExpired(); err != nil {
					logging.Warn("purge expired", "error", err)
				} else if n > 0 {
					logging.Debug("purged expired rows", "count", n)
				}
			}
		}
	}()

	api := server.New(lex, coord, archive, cfg.RateLimitPerDay)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("listening", "addr", cfg.Addr, "targets", len(cfg.Targets))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logging.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("server shutdown", "error", err)
	}

	cancel()
	coord.Wait()
	return nil
}
