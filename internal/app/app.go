// Package app wires the watch pipeline together: one directory watcher per
// rule feeding a shared registry, drained by the debounce loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"dropwatch/internal/config"
	"dropwatch/internal/debounce"
	"dropwatch/internal/dispatcher"
	"dropwatch/internal/history"
	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/metrics"
	"dropwatch/internal/registry"
	"dropwatch/internal/rules"
	"dropwatch/internal/scaner"
	"dropwatch/internal/stability"
	"dropwatch/internal/watcher"

	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

// ignorePatterns hide the dispatcher's in-progress copies from rules that
// watch another rule's target directory.
var ignorePatterns = []string{dispatcher.TempPrefix}

type App struct {
	cfg   *config.Config
	rules []*rules.Rule
	log   *slog.Logger

	registry *registry.Registry
	metrics  *metrics.Metrics
	journal  *history.Journal
	loop     *debounce.Loop
}

func New(cfg *config.Config, rs []*rules.Rule, log *slog.Logger) (*App, error) {
	a := &App{
		cfg:      cfg,
		rules:    rs,
		log:      log,
		registry: registry.New(),
		metrics:  metrics.New(),
	}

	loopCfg := debounce.Config{
		Tick:          cfg.App.TickInterval,
		StableWait:    cfg.App.StableWait(),
		Workers:       cfg.App.CheckWorkers,
		ShutdownGrace: cfg.App.ShutdownGrace,
		EvictAfter:    cfg.App.EvictAfter,
		Logger:        log,
		Metrics:       a.metrics,
	}

	if cfg.History.Path != "" {
		j, err := history.Open(history.Config{Path: cfg.History.Path})
		if err != nil {
			return nil, fmt.Errorf("open history journal: %w", err)
		}
		a.journal = j
		loopCfg.Recorder = j
	}

	a.loop = debounce.New(
		a.registry,
		stability.NewChecker(cfg.App.StabilityCheckInterval()),
		dispatcher.New(log),
		loopCfg,
	)
	return a, nil
}

// Run starts a watcher per rule and the debounce loop, and blocks until
// ctx is done. Rules whose source cannot be watched are skipped.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"
	log := a.log.With(slog.String("op", op))

	watchers := a.startWatchers(log)
	if len(watchers) == 0 {
		log.Warn("no directory is being watched")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.loop.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("stopping watchers", slog.Int("count", len(watchers)))
		for _, w := range watchers {
			if err := w.Close(); err != nil {
				log.Warn("failed to close watcher", slog.String("source", w.Rule().SourcePath), sl.Err(err))
			}
		}
		return nil
	})

	if addr := a.cfg.Metrics.Address; addr != "" {
		a.serveMetrics(gctx, g, addr, log)
	}

	return g.Wait()
}

func (a *App) startWatchers(log *slog.Logger) []*watcher.DirectoryWatcher {
	var started []*watcher.DirectoryWatcher

	for _, rule := range a.rules {
		rlog := log.With(slog.String("source", rule.SourcePath))

		if err := os.MkdirAll(rule.TargetPath, 0755); err != nil {
			rlog.Error("rule skipped: cannot create target directory",
				slog.String("target", rule.TargetPath), sl.Err(err))
			continue
		}

		w, err := watcher.NewDirectoryWatcher(rule, a.registry, watcher.Config{
			Logger:         a.log,
			Metrics:        a.metrics,
			IgnorePatterns: ignorePatterns,
		})
		if err != nil {
			rlog.Error("rule skipped: cannot create watcher", sl.Err(err))
			continue
		}

		if err := w.Start(); err != nil {
			var startErr *watcher.WatchStartError
			if errors.As(err, &startErr) {
				rlog.Error("rule skipped: cannot watch source", sl.Err(startErr.Err))
			} else {
				rlog.Error("rule skipped", sl.Err(err))
			}
			w.Close()
			continue
		}

		started = append(started, w)

		if a.cfg.App.SweepExisting {
			n, err := scaner.New(a.registry, a.log, ignorePatterns...).ScanRule(rule)
			if err != nil {
				rlog.Warn("sweep of existing files failed", sl.Err(err))
				continue
			}
			rlog.Info("swept existing files", slog.Int("armed", n))
		}
	}

	return started
}

func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group, addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("serving metrics", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// a dead metrics endpoint never stops the pipeline
			log.Error("metrics server failed", slog.String("address", addr), sl.Err(err))
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// Close releases resources that outlive Run.
func (a *App) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

func (a *App) Registry() *registry.Registry {
	return a.registry
}
