package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/provisioning/remote"
)

// RunOptions are the flags of the run command.
type RunOptions struct {
	Commands     []string
	Needle       string
	Timeout      time.Duration
	Document     string
	EchoCommands bool
	EchoOutput   bool
}

// Run executes commands on the ready machine called name. With a needle,
// it fails unless some output line contains it.
func Run(ctx context.Context, g Globals, name string, o RunOptions) error {
	if len(o.Commands) == 0 {
		return fmt.Errorf("%w: at least one command is required", provisioning.ErrConfiguration)
	}

	var opts []remote.RunOption
	if o.Timeout > 0 {
		opts = append(opts, remote.WithTimeout(o.Timeout))
	}
	if o.Document != "" {
		opts = append(opts, remote.WithDocument(o.Document))
	}
	opts = append(opts, remote.EchoCommands(o.EchoCommands), remote.EchoOutput(o.EchoOutput))

	return withSession(ctx, g, func(s *Session) error {
		m, err := s.Binder.BindOrLaunch(ctx, name, nil, nil)
		if err != nil {
			return err
		}

		if o.Needle != "" {
			found, err := s.Runner.RunAndVerify(ctx, m.InstanceID, o.Commands, o.Needle, opts...)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %q not found in the output of %s", provisioning.ErrCommandFailed, o.Needle, m.Name)
			}
			provisioning.Success(s.Observer, "cli", m.Name, "Verified %q in command output", o.Needle)
			return nil
		}

		lines, err := s.Runner.Run(ctx, m.InstanceID, o.Commands, opts...)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(g.out(), line)
		}
		return nil
	})
}
