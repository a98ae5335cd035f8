package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwerks/gwerks/cmd/gwerks/handlers"
	"github.com/gwerks/gwerks/internal/cliopts"
	"github.com/gwerks/gwerks/internal/provisioning"
)

// Run returns the run command.
func Run(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(
		nameOption,
		cliopts.Option{Name: "expect", Usage: "Fail unless an output line contains this text"},
		cliopts.Option{Name: "timeout", Usage: "Command timeout, e.g. 10m (minimum 30s)"},
		cliopts.Option{Name: "document", Usage: "SSM document to run (default AWS-RunShellScript)"},
	)
	var o handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run [flags] -- COMMAND...",
		Short: "Run shell commands on a machine through SSM",
		Long: `Run sends the commands to the machine's SSM agent as one script and prints
the output. Each argument after -- is one command line.

Example:
  gwerks run -n web -e nginx -- "systemctl status nginx"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			o.Commands = args
			o.Needle, _ = opts.Get("expect")
			o.Document, _ = opts.Get("document")
			if raw, _ := opts.Get("timeout"); raw != "" {
				d, err := time.ParseDuration(raw)
				if err != nil {
					return fmt.Errorf("%w: invalid timeout %q: %w", provisioning.ErrConfiguration, raw, err)
				}
				o.Timeout = d
			}
			return handlers.Run(cmd.Context(), *g, name, o)
		},
	}
	opts.Bind(cmd.Flags())
	cmd.Flags().BoolVar(&o.EchoCommands, "echo-commands", true, "Print each command before sending")
	cmd.Flags().BoolVar(&o.EchoOutput, "echo-output", false, "Print output lines as they are collected")
	return cmd
}

// Secret returns the secret command.
func Secret(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(
		cliopts.Option{Name: "name", Default: cliopts.Required, Usage: "Secret name or ARN"},
		cliopts.Option{Name: "key", Usage: "Print only this key of a JSON secret"},
	)

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a Secrets Manager secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			key, _ := opts.Get("key")
			return handlers.Secret(cmd.Context(), *g, name, key)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

// Env returns the env command.
func Env(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print and validate the active runtime",
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Env(*g)
		},
	}
}
