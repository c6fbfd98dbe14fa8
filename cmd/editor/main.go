// Package main provides the editor CLI: the API server
// and operator commands that run revisions and list
// issues and pull requests from a terminal.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	return newRootCmd(os.Getenv, os.Stdin, os.Stdout).ExecuteContext(ctx)
}

func main() {
	if err := run(); err != nil {
		slog.Error("editor", "error", err)
		os.Exit(1)
	}
}
