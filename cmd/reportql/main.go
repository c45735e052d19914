// Package main is the entry point for the reportql CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/satishbabariya/reportql/cmd/reportql/commands"
	"github.com/satishbabariya/reportql/internal/ui"
)

func main() {
	if err := run(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := commands.NewApp()
	defer app.Close(context.Background())

	return commands.NewRootCommand(app).ExecuteContext(ctx)
}
