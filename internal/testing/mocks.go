package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gwerks/gwerks/internal/platform/s3"
)

// MockOutputFetcher is a mock implementation of the full command output
// fetcher.
type MockOutputFetcher struct {
	mock.Mock
}

// CommandOutput returns the mocked stream content.
func (m *MockOutputFetcher) CommandOutput(ctx context.Context, bucket, prefix, commandID, instanceID string, stream s3.Stream) (string, error) {
	args := m.Called(ctx, bucket, prefix, commandID, instanceID, stream)
	return args.String(0), args.Error(1)
}
