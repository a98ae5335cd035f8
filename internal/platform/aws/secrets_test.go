package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/provisioning"
)

func TestDecodeBinarySecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "aGVsbG8=", "hello"},
		{"missing padding", "aGVsbG8", "hello"},
		{"noise stripped", "aGVs\nbG8-!", "hello"},
		{"two pad chars", "aGk", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeBinarySecret([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSecretStore_GetSecret(t *testing.T) {
	t.Parallel()

	t.Run("string secret", func(t *testing.T) {
		t.Parallel()
		var gotID string
		store := NewSecretStore(&MockSecrets{
			GetSecretValueFunc: func(_ context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				gotID = aws.ToString(in.SecretId)
				return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"user":"app","port":5432}`)}, nil
			},
		})

		m, err := store.SecretMap(context.Background(), "db/creds")
		require.NoError(t, err)
		assert.Equal(t, "db/creds", gotID)
		assert.Equal(t, "app", m["user"])
		assert.InDelta(t, 5432, m["port"], 0)
	})

	t.Run("binary secret", func(t *testing.T) {
		t.Parallel()
		store := NewSecretStore(&MockSecrets{
			GetSecretValueFunc: func(context.Context, *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{SecretBinary: []byte("c2VjcmV0")}, nil
			},
		})

		got, err := store.GetSecret(context.Background(), "key")
		require.NoError(t, err)
		assert.Equal(t, "secret", string(got))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		store := NewSecretStore(&MockSecrets{
			GetSecretValueFunc: func(context.Context, *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return nil, &smithy.GenericAPIError{Code: CodeSecretNotFound}
			},
		})

		_, err := store.GetSecret(context.Background(), "missing")
		assert.ErrorIs(t, err, provisioning.ErrNotFound)
	})

	t.Run("not a map", func(t *testing.T) {
		t.Parallel()
		store := NewSecretStore(&MockSecrets{
			GetSecretValueFunc: func(context.Context, *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{SecretString: aws.String("plain")}, nil
			},
		})

		_, err := store.SecretMap(context.Background(), "plain")
		assert.Error(t, err)
	})
}
