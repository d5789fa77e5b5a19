// Package main provides the entry point for the brickpick CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Signal handling for graceful shutdown of in-flight fetches
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
