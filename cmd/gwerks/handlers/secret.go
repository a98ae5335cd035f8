package handlers

import (
	"context"
	"fmt"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// Secret prints a secret, or one key of a JSON secret.
func Secret(ctx context.Context, g Globals, name, key string) error {
	return withSession(ctx, g, func(s *Session) error {
		if key == "" {
			value, err := s.Secrets.GetSecret(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(g.out(), string(value))
			return nil
		}

		values, err := s.Secrets.SecretMap(ctx, name)
		if err != nil {
			return err
		}
		value, ok := values[key]
		if !ok {
			return fmt.Errorf("%w: key %q in secret %s", provisioning.ErrNotFound, key, name)
		}
		fmt.Fprintln(g.out(), value)
		return nil
	})
}
