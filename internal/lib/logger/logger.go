// Package logger builds the application slog.Logger: a console handler
// picked by environment plus an optional rotating file sink.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dropwatch/internal/lib/logger/handlers/fanout"
	"dropwatch/internal/lib/logger/handlers/slogpretty"
	"dropwatch/internal/lib/logger/sl"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Options struct {
	Env string
	// FilePath enables the file sink when non-empty.
	FilePath string
	// Backups is how many rotated files (and days) are kept.
	Backups int
	Console io.Writer
}

// Logger owns the handlers and the file sink behind an *slog.Logger.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

func New(opts Options) (*Logger, error) {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	console := consoleHandler(opts.Env, opts.Console)
	l := &Logger{}

	if opts.FilePath == "" {
		l.Logger = slog.New(console)
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, err
	}

	backups := opts.Backups
	if backups <= 0 {
		backups = 14
	}
	l.file = &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxBackups: backups,
		MaxAge:     backups,
		LocalTime:  true,
	}

	file := slog.NewJSONHandler(l.file, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true})
	l.Logger = slog.New(fanout.New(console, file))
	return l, nil
}

// RotateDaily rotates the file sink at every local midnight until ctx is
// done. Without a file sink it returns immediately.
func (l *Logger) RotateDaily(ctx context.Context) {
	if l.file == nil {
		return
	}

	for {
		timer := time.NewTimer(untilMidnight(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := l.file.Rotate(); err != nil {
				l.Error("log rotation failed", sl.Err(err))
			}
		}
	}
}

// StartRotation runs RotateDaily in the background. The returned stop
// cancels it and waits for it to return; call it before Close.
func (l *Logger) StartRotation(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.RotateDaily(ctx)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}

func consoleHandler(env string, out io.Writer) slog.Handler {
	switch env {
	case EnvDev:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvProd:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		if !isTerminal(out) {
			return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
		}
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		}
		return opts.NewPrettyHandler(out)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
