package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cliplugins "dropwatch/internal/cli_plugins"
	"dropwatch/pkg/cli"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChan
		cancel()
	}()

	c := cli.NewCLI("dropwatch", "Watch drop directories and route stable files")
	c.RegisterPlugin(cliplugins.NewRunCommand())
	c.RegisterPlugin(cliplugins.NewRulesCommand())
	c.RegisterPlugin(cliplugins.NewHistoryCommand())
	c.RegisterPlugin(cli.NewVersionCommand(version))

	if err := c.Run(ctx, nil); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
