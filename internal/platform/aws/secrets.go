package aws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// SecretStore reads secrets from Secrets Manager.
type SecretStore struct {
	api SecretsAPI
}

// NewSecretStore creates a SecretStore over api.
func NewSecretStore(api SecretsAPI) *SecretStore {
	return &SecretStore{api: api}
}

// GetSecret returns the secret's string value or, for binary secrets, the
// decoded payload.
func (s *SecretStore) GetSecret(ctx context.Context, name string) ([]byte, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		if IsSecretNotFound(err) {
			return nil, fmt.Errorf("secret %s: %w", name, provisioning.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	if out.SecretString != nil {
		return []byte(aws.ToString(out.SecretString)), nil
	}
	decoded, err := DecodeBinarySecret(out.SecretBinary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	return decoded, nil
}

// SecretMap returns a secret holding a JSON object as a map.
func (s *SecretStore) SecretMap(ctx context.Context, name string) (map[string]any, error) {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}
	return m, nil
}

// DecodeBinarySecret strips every character outside the base64 alphabet,
// pads to a multiple of four and decodes.
func DecodeBinarySecret(data []byte) ([]byte, error) {
	var b strings.Builder
	for _, c := range data {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '+', c == '/':
			b.WriteByte(c)
		}
	}
	cleaned := b.String()
	if missing := len(cleaned) % 4; missing != 0 {
		cleaned += strings.Repeat("=", 4-missing)
	}
	return base64.StdEncoding.DecodeString(cleaned)
}
