package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/rules"
)

// Result describes what Dispatch did.
type Result struct {
	Action      rules.Action
	Source      string
	Destination string
	Skipped     bool
}

// Dispatcher applies a rule's action to a stabilized file.
type Dispatcher struct {
	log *slog.Logger
	// rename is swapped in tests to force the cross-device path.
	rename func(oldpath, newpath string) error
}

func New(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		log:    log,
		rename: os.Rename,
	}
}

// Dispatch performs rule.Action on path. Unsupported actions are logged and
// reported as skipped with a nil error. File operation failures are
// returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, path string, rule *rules.Rule) (Result, error) {
	const op = "dispatcher.Dispatch"
	log := d.log.With(slog.String("op", op))

	if rule == nil {
		return Result{}, ErrNilRule
	}

	res := Result{
		Action:      rule.Action,
		Source:      path,
		Destination: filepath.Join(rule.TargetPath, filepath.Base(path)),
	}

	switch rule.Action.Kind {
	case rules.KindCopy:
		log.Info("[COPY]", slog.String("source", res.Source), slog.String("destination", res.Destination))
		if err := copyFile(ctx, res.Source, res.Destination); err != nil {
			return res, fmt.Errorf("%s: copy %s: %w", op, path, err)
		}

	case rules.KindMove:
		log.Info("[MOVE]", slog.String("source", res.Source), slog.String("destination", res.Destination))
		if err := d.move(ctx, log, res.Source, res.Destination); err != nil {
			return res, fmt.Errorf("%s: move %s: %w", op, path, err)
		}

	case rules.KindDelete:
		log.Info("[DELETE]", slog.String("source", res.Source), slog.String("destination", res.Destination))
		if err := os.Remove(res.Source); err != nil {
			return res, fmt.Errorf("%s: delete %s: %w", op, path, err)
		}

	default:
		res.Destination = ""
		res.Skipped = true
		log.Info("[SKIP] unsupported action",
			slog.String("action", rule.Action.Raw),
			slog.String("source", res.Source),
		)
	}

	return res, nil
}

func (d *Dispatcher) move(ctx context.Context, log *slog.Logger, src, dst string) error {
	err := d.rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	log.Debug("rename crosses filesystems, copying instead", sl.Err(err))

	if err := copyFile(ctx, src, dst); err != nil {
		return err
	}

	if err := verifyCopy(src, dst); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			log.Warn("failed to remove unverified copy", slog.String("destination", dst), sl.Err(rmErr))
		}
		return err
	}

	return os.Remove(src)
}
