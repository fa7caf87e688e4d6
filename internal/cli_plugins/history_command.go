package cliplugins

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"dropwatch/internal/history"

	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 20

var ErrHistoryDisabled = errors.New("history journal is disabled: set history.path")

// HistoryCommand prints the newest dispatch records from the journal.
type HistoryCommand struct {
	cmd *cobra.Command
}

func NewHistoryCommand() *HistoryCommand {
	return &HistoryCommand{}
}

func (h *HistoryCommand) Meta() *cobra.Command {
	if h.cmd != nil {
		return h.cmd
	}
	h.cmd = &cobra.Command{
		Use:   "history",
		Short: "Print recent dispatches",
		Long:  "Print recent dispatches. The journal is locked while dropwatch runs.",
		Args:  cobra.NoArgs,
	}
	h.cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "number of records to print")
	return h.cmd
}

func (h *HistoryCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("flag --limit failed: %w", err)
	}
	if limit <= 0 {
		return fmt.Errorf("flag --limit must be positive, got %d", limit)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ErrHistoryDisabled
	}

	j, err := history.Open(history.Config{Path: cfg.History.Path})
	if err != nil {
		return fmt.Errorf("open history journal: %w", err)
	}
	defer j.Close()

	recs, err := j.Recent(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSTATUS\tPATH\tDESTINATION\tERROR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.At.Local().Format(time.DateTime), r.Action, r.Status, r.Path, r.Destination, r.Error)
	}
	return tw.Flush()
}
