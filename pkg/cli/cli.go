// Package cli is a small cobra host that assembles commands from plugins.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const configFlag = "config"

type CommandPlugin interface {
	Meta() *cobra.Command
	Execute(ctx context.Context, cmd *cobra.Command, args []string) error
}

type CLI struct {
	rootCmd *cobra.Command
	plugins []CommandPlugin
}

func NewCLI(name, short string) *CLI {
	root := &cobra.Command{
		Use:           name,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP(configFlag, "c", "", "path to the config file (overrides CONFIG_PATH)")

	return &CLI{
		rootCmd: root,
		plugins: make([]CommandPlugin, 0, 4),
	}
}

func (c *CLI) RegisterPlugin(p CommandPlugin) {
	c.plugins = append(c.plugins, p)
	cmd := p.Meta()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return p.Execute(cmd.Context(), cmd, args)
	}
	c.rootCmd.AddCommand(cmd)
}

// ConfigPath returns the --config value, empty when unset.
func ConfigPath(cmd *cobra.Command) string {
	path, err := cmd.Root().PersistentFlags().GetString(configFlag)
	if err != nil {
		return ""
	}
	return path
}

func (c *CLI) initCompletion() {
	c.rootCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string,
	) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(c.plugins))
		for _, plugin := range c.plugins {
			names = append(names, plugin.Meta().Name())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
	completionCmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate completion script",
		Long:      "Generate completion script for bash, zsh, fish or powershell",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "bash"
			if len(args) > 0 {
				shell = args[0]
			}
			switch shell {
			case "bash":
				return c.rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return c.rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return c.rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return c.rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell: %s", shell)
			}
		},
	}
	// source <(dropwatch completion zsh)
	c.rootCmd.AddCommand(completionCmd)
}

// Run executes the command named by args (os.Args[1:] when nil).
func (c *CLI) Run(ctx context.Context, args []string) error {
	c.initCompletion()
	if args != nil {
		c.rootCmd.SetArgs(args)
	}
	return c.rootCmd.ExecuteContext(ctx)
}

// Root exposes the root command, mainly for output redirection in tests.
func (c *CLI) Root() *cobra.Command {
	return c.rootCmd
}
