package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/provisioning"
)

// confirm asks the operator a yes/no question. Replaced in tests.
var confirm = func(ctx context.Context, title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Terminate").
				Negative("Cancel").
				Value(&ok),
		),
	).RunWithContext(ctx)
	return ok, err
}

// Bind binds to an existing machine, launching it from specPath when it
// does not exist and a spec was given.
func Bind(ctx context.Context, g Globals, name, specPath string) error {
	var spec *machine.Spec
	if specPath != "" {
		s, err := loadSpec(specPath)
		if err != nil {
			return err
		}
		spec = s
	}
	return bindOrLaunch(ctx, g, name, spec)
}

// Launch binds to or launches a machine; the spec is mandatory.
func Launch(ctx context.Context, g Globals, name, specPath string) error {
	if specPath == "" {
		return fmt.Errorf("%w: a spec file is required to launch %s", provisioning.ErrConfiguration, name)
	}
	spec, err := loadSpec(specPath)
	if err != nil {
		return err
	}
	return bindOrLaunch(ctx, g, name, spec)
}

func bindOrLaunch(ctx context.Context, g Globals, name string, spec *machine.Spec) error {
	return withSession(ctx, g, func(s *Session) error {
		m, err := s.Binder.BindOrLaunch(ctx, name, spec, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.out(), "%s\t%s\t%s\n", m.Name, m.InstanceID, m.PrivateIP)
		return nil
	})
}

// Describe prints the machine-info table for name.
func Describe(ctx context.Context, g Globals, name string) error {
	return withSession(ctx, g, func(s *Session) error {
		table, err := s.Binder.Describe(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(g.out(), table)
		return nil
	})
}

// Start starts name.
func Start(ctx context.Context, g Globals, name, keyPair string) error {
	return withSession(ctx, g, func(s *Session) error {
		return s.Binder.Start(ctx, name, keyPair)
	})
}

// Stop stops name.
func Stop(ctx context.Context, g Globals, name, keyPair string) error {
	return withSession(ctx, g, func(s *Session) error {
		return s.Binder.Stop(ctx, name, keyPair)
	})
}

// Terminate destroys name after confirmation, unless yes is set.
func Terminate(ctx context.Context, g Globals, name, keyPair string, force, yes bool) error {
	return withSession(ctx, g, func(s *Session) error {
		if !yes {
			ok, err := confirm(ctx,
				fmt.Sprintf("Terminate %s?", name),
				fmt.Sprintf("This permanently destroys the machine in the %s environment.", s.Runtime.Environment))
			if err != nil {
				return fmt.Errorf("confirmation failed: %w", err)
			}
			if !ok {
				provisioning.Info(s.Observer, "cli", name, "Termination cancelled")
				return nil
			}
		}
		return s.Binder.Terminate(ctx, name, keyPair, force)
	})
}

// Protect flips termination protection on name and prints the new state.
func Protect(ctx context.Context, g Globals, name string) error {
	return withSession(ctx, g, func(s *Session) error {
		m, err := s.Binder.Find(ctx, name)
		if err != nil {
			return err
		}
		protected, err := s.Binder.ToggleTerminationProtection(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.out(), "%s termination protection: %t\n", m.Name, protected)
		return nil
	})
}
