package cliplugins

import (
	"context"
	"fmt"
	"text/tabwriter"

	"dropwatch/internal/rules"

	"github.com/spf13/cobra"
)

// RulesCommand prints the rules parsed from the directories file.
type RulesCommand struct {
	cmd *cobra.Command
}

func NewRulesCommand() *RulesCommand {
	return &RulesCommand{}
}

func (r *RulesCommand) Meta() *cobra.Command {
	if r.cmd != nil {
		return r.cmd
	}
	r.cmd = &cobra.Command{
		Use:   "rules",
		Short: "Print the configured directory rules",
		Args:  cobra.NoArgs,
	}
	return r.cmd
}

func (r *RulesCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rs, err := rules.Load(cfg.App.DirectoriesPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tPATTERN\tTARGET\tACTION")
	for _, rule := range rs {
		action := rule.Action.String()
		if !rule.Action.Supported() {
			action += " (unsupported)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rule.SourcePath, rule.FilePattern, rule.TargetPath, action)
	}
	return tw.Flush()
}
