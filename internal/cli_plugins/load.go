package cliplugins

import (
	"dropwatch/internal/config"
	"dropwatch/pkg/cli"

	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.ResolvePath(cli.ConfigPath(cmd)))
}
