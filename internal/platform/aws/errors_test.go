package aws

import (
	"errors"
	"fmt"
	"testing"

	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsInstanceNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("boom"), false},
		{"matching code", &smithy.GenericAPIError{Code: CodeInstanceNotFound}, true},
		{"wrapped code", fmt.Errorf("tagging: %w", &smithy.GenericAPIError{Code: CodeInstanceNotFound}), true},
		{"other code", &smithy.GenericAPIError{Code: "UnauthorizedOperation"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsInstanceNotFound(tt.err))
		})
	}
}

func TestIsInvocationPending(t *testing.T) {
	t.Parallel()

	assert.False(t, IsInvocationPending(nil))
	assert.True(t, IsInvocationPending(&ssmtypes.InvocationDoesNotExist{}))
	assert.True(t, IsInvocationPending(&smithy.GenericAPIError{Code: CodeInvocationDoesNotExist}))
	assert.False(t, IsInvocationPending(errors.New("throttled")))
}

func TestIsSecretNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSecretNotFound(&smithy.GenericAPIError{Code: CodeSecretNotFound}))
	assert.False(t, IsSecretNotFound(&smithy.GenericAPIError{Code: "DecryptionFailure"}))
}
