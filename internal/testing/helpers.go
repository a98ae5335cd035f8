package testing

import (
	"context"
	"testing"
	"time"

	"github.com/gwerks/gwerks/internal/config"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Runtime returns a Test-environment runtime in us-east-1.
func Runtime() config.Runtime {
	return config.Runtime{Environment: config.EnvTest, Region: config.RegionUSEast1, Profile: config.DefaultProfile}
}
