package cliplugins

import (
	"context"
	"fmt"
	"log/slog"

	"dropwatch/internal/app"
	"dropwatch/internal/lib/logger"
	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/rules"

	"github.com/spf13/cobra"
)

// RunCommand starts the watch pipeline and blocks until the context is
// cancelled.
type RunCommand struct {
	cmd *cobra.Command
}

func NewRunCommand() *RunCommand {
	return &RunCommand{}
}

func (r *RunCommand) Meta() *cobra.Command {
	if r.cmd != nil {
		return r.cmd
	}
	r.cmd = &cobra.Command{
		Use:   "run",
		Short: "Watch the configured directories",
		Long:  "Watch every source directory from the directories file and dispatch files once they are stable.",
		Args:  cobra.NoArgs,
	}
	return r.cmd
}

func (r *RunCommand) Execute(ctx context.Context, cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Env:      cfg.Env,
		FilePath: cfg.App.LogfilePath,
		Backups:  cfg.App.LogBackups,
		Console:  cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer log.Close()
	stopRotation := log.StartRotation(ctx)
	defer stopRotation()

	rs, err := rules.Load(cfg.App.DirectoriesPath)
	if err != nil {
		log.Error("cannot load directories file", slog.String("path", cfg.App.DirectoriesPath), sl.Err(err))
		return err
	}

	log.Info("starting dropwatch",
		slog.String("env", cfg.Env),
		slog.Int("rules", len(rs)),
		slog.Duration("stable_wait", cfg.App.StableWait()),
	)

	a, err := app.New(cfg, rs, log.Logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("stopped with error", sl.Err(err))
		return err
	}
	log.Info("stopped")
	return nil
}
