// Package debounce runs the control loop that turns tracked files into
// dispatches once they have been quiet for long enough and their size has
// stopped changing.
//
// Stability checks block for a full sampling interval, so they run on a
// fixed pool of workers. A tick only hands due paths to the pool and never
// waits for a check. With every worker busy, due paths wait for a later tick:
// worst-case latency is roughly interval * due files / workers.
package debounce

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"dropwatch/internal/history"
	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/metrics"
)

type Config struct {
	// Tick is the scan period of the registry.
	Tick time.Duration
	// StableWait is the quiet period after the last event before a path
	// is checked.
	StableWait time.Duration
	Workers    int
	// QueueSize bounds pending checks; defaults to Workers.
	QueueSize int
	// ShutdownGrace is how long in-flight checks may run after shutdown
	// before they are cancelled.
	ShutdownGrace time.Duration
	// EvictAfter drops entries whose file no longer exists once their last
	// event is this old. Zero keeps them forever.
	EvictAfter time.Duration

	Now      func() time.Time
	Logger   *slog.Logger
	Metrics  Metrics
	Recorder Recorder
}

type job struct {
	path       string
	generation uint64
}

type Loop struct {
	registry   Registry
	checker    Checker
	dispatcher Dispatcher
	config     Config
	log        *slog.Logger

	jobs chan job

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(reg Registry, checker Checker, d Dispatcher, config Config) *Loop {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.Workers
	}
	if config.ShutdownGrace <= 0 {
		config.ShutdownGrace = DefaultShutdownGrace
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}

	return &Loop{
		registry:   reg,
		checker:    checker,
		dispatcher: d,
		config:     config,
		log:        config.Logger.With(slog.String("op", "debounce.Loop")),
		jobs:       make(chan job, config.QueueSize),
		inflight:   make(map[string]struct{}),
	}
}

// Run scans the registry every tick until ctx is done. On shutdown queued
// checks are dropped, running ones get ShutdownGrace to finish and tracked
// entries are left as they are. Run must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	var wg sync.WaitGroup
	for i := 0; i < l.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.worker(ctx, workCtx)
		}()
	}

	ticker := time.NewTicker(l.config.Tick)
	defer ticker.Stop()

	l.log.Info("debounce loop started",
		slog.Duration("tick", l.config.Tick),
		slog.Duration("stable_wait", l.config.StableWait),
		slog.Int("workers", l.config.Workers),
	)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			l.tick()
		}
	}

	close(l.jobs)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := time.NewTimer(l.config.ShutdownGrace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
		l.log.Warn("cancelling in-flight checks", slog.Duration("grace", l.config.ShutdownGrace))
		cancelWork()
		<-done
	}

	l.log.Info("debounce loop stopped", slog.Int("dropped", l.registry.Len()))
	return nil
}

func (l *Loop) tick() {
	now := l.config.Now()
	keys := l.registry.SnapshotKeys()
	l.config.Metrics.SetTracked(len(keys))

	for _, path := range keys {
		e, ok := l.registry.Peek(path)
		if !ok {
			continue
		}
		if now.Sub(e.LastEvent) < l.config.StableWait {
			continue
		}
		if !l.claim(path) {
			continue
		}

		select {
		case l.jobs <- job{path: path, generation: e.Generation}:
		default:
			l.release(path)
			l.log.Debug("check queue full, deferring", slog.String("path", path))
		}
	}
}

func (l *Loop) worker(runCtx, workCtx context.Context) {
	for j := range l.jobs {
		if runCtx.Err() != nil {
			l.release(j.path)
			continue
		}
		l.process(workCtx, j)
	}
}

// process runs the stability check for one due path and dispatches it when
// the arm window it was scheduled for is still current.
func (l *Loop) process(ctx context.Context, j job) {
	defer l.release(j.path)
	log := l.log.With(slog.String("path", j.path))

	stable, err := l.checker.Check(ctx, j.path)
	if err != nil {
		l.config.Metrics.RecordCheck(metrics.CheckFailed)
		log.Debug("stability check failed", sl.Err(err))
		l.maybeEvict(j, err)
		return
	}
	if !stable {
		l.config.Metrics.RecordCheck(metrics.CheckChanged)
		log.Debug("size still changing")
		return
	}

	e, ok := l.registry.Peek(j.path)
	if !ok || e.Generation != j.generation {
		l.config.Metrics.RecordCheck(metrics.CheckRearmed)
		log.Debug("re-armed during stability check")
		return
	}
	l.config.Metrics.RecordCheck(metrics.CheckStable)

	start := time.Now()
	res, derr := l.dispatcher.Dispatch(ctx, j.path, e.Rule)

	rec := &history.Record{
		Path:        j.path,
		Destination: res.Destination,
		Action:      e.Rule.Action.String(),
		Status:      history.StatusOK,
	}
	switch {
	case derr != nil:
		rec.Status = history.StatusFailed
		rec.Error = derr.Error()
		log.Error("dispatch failed", slog.String("action", rec.Action), sl.Err(derr))
	case res.Skipped:
		rec.Status = history.StatusSkipped
	}
	l.config.Metrics.RecordDispatch(e.Rule.Action.Kind.String(), rec.Status, time.Since(start))
	l.record(rec)

	if !l.registry.CompareAndRemove(j.path, e.Generation) {
		log.Debug("re-armed during dispatch, keeping entry")
	}
	l.config.Metrics.SetTracked(l.registry.Len())
}

func (l *Loop) maybeEvict(j job, err error) {
	if l.config.EvictAfter <= 0 || !errors.Is(err, fs.ErrNotExist) {
		return
	}

	e, ok := l.registry.Peek(j.path)
	if !ok || e.Generation != j.generation {
		return
	}
	if l.config.Now().Sub(e.LastEvent) < l.config.EvictAfter {
		return
	}

	if l.registry.CompareAndRemove(j.path, e.Generation) {
		l.config.Metrics.RecordEviction()
		l.log.Warn("evicted vanished file",
			slog.String("path", j.path),
			slog.Time("last_event", e.LastEvent),
		)
	}
}

func (l *Loop) record(rec *history.Record) {
	if l.config.Recorder == nil {
		return
	}
	if err := l.config.Recorder.Append(rec); err != nil {
		l.log.Warn("failed to journal dispatch", slog.String("path", rec.Path), sl.Err(err))
	}
}

func (l *Loop) claim(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.inflight[path]; busy {
		return false
	}
	l.inflight[path] = struct{}{}
	return true
}

func (l *Loop) release(path string) {
	l.mu.Lock()
	delete(l.inflight, path)
	l.mu.Unlock()
}
