package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// VersionCommand prints the build version.
type VersionCommand struct {
	cmd     *cobra.Command
	version string
}

func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{version: version}
}

func (v *VersionCommand) Meta() *cobra.Command {
	if v.cmd == nil {
		v.cmd = &cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
		}
	}
	return v.cmd
}

func (v *VersionCommand) Execute(_ context.Context, cmd *cobra.Command, _ []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), v.version)
	return err
}
