// Package main is the entry point for the gwerks CLI.
//
// gwerks binds logical machine names to EC2 instances: it finds the one
// live instance carrying a name in the current environment, or launches it
// from a machine spec, waits for its bootstrap to finish and runs commands
// on it through SSM.
//
// For detailed usage information, run:
//
//	gwerks --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gwerks/gwerks/cmd/gwerks/commands"
	"github.com/gwerks/gwerks/internal/provisioning"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		// Failures already narrated by the observer are not printed twice.
		if !provisioning.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
