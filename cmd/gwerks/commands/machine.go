package commands

import (
	"github.com/spf13/cobra"

	"github.com/gwerks/gwerks/cmd/gwerks/handlers"
	"github.com/gwerks/gwerks/internal/cliopts"
)

var nameOption = cliopts.Option{Name: "name", Default: cliopts.Required, Usage: "Machine name, without the environment suffix"}

// Bind returns the bind command.
func Bind(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption, cliopts.Option{Name: "spec", Usage: "Machine spec to launch from when the machine does not exist"})

	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Bind to a machine, launching it from a spec if needed",
		Long: `Bind looks up the single live machine with the given name in the current
environment and waits until it is ready. When it does not exist and --spec is
given, the machine is launched from the spec first.

Example:
  gwerks bind -n web -s web.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			spec, _ := opts.Get("spec")
			return handlers.Bind(cmd.Context(), *g, name, spec)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

// Launch returns the launch command.
func Launch(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption, cliopts.Option{Name: "spec", Default: cliopts.Required, Usage: "Machine spec file"})

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch a machine from a spec, or bind to it if it already exists",
		Long: `Launch creates the machine described by the spec, tags it, attaches any
reserved IP, enables termination protection and waits for the bootstrap to
finish. If the machine already exists it is bound instead.

Example:
  gwerks launch -n web -s web.yaml --env Test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			spec, err := opts.Get("spec")
			if err != nil {
				return err
			}
			return handlers.Launch(cmd.Context(), *g, name, spec)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

// Describe returns the describe command.
func Describe(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print machine information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			return handlers.Describe(cmd.Context(), *g, name)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

var keyPairOption = cliopts.Option{Name: "key_pair", Usage: "Expected launch key pair (default from the catalog)"}

// Start returns the start command.
func Start(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption, keyPairOption)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a stopped machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			keyPair, _ := opts.Get("key_pair")
			return handlers.Start(cmd.Context(), *g, name, keyPair)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

// Stop returns the stop command.
func Stop(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption, keyPairOption)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			keyPair, _ := opts.Get("key_pair")
			return handlers.Stop(cmd.Context(), *g, name, keyPair)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}

// Terminate returns the terminate command.
func Terminate(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption, keyPairOption)
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "terminate",
		Short: "Terminate a machine",
		Long: `Terminate disables termination protection and destroys the machine.
A machine launched with a different key pair is refused unless --force is set.

WARNING: This operation is irreversible.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			keyPair, _ := opts.Get("key_pair")
			return handlers.Terminate(cmd.Context(), *g, name, keyPair, force, yes)
		},
	}
	opts.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Terminate even if the key pair does not match")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// Protect returns the protect command.
func Protect(g *handlers.Globals) *cobra.Command {
	opts := cliopts.MustNew(nameOption)

	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Toggle termination protection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := opts.Get("name")
			if err != nil {
				return err
			}
			return handlers.Protect(cmd.Context(), *g, name)
		},
	}
	opts.Bind(cmd.Flags())
	return cmd
}
