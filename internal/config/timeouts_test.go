package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	for _, key := range []string{
		"GWERKS_SPOT_POLL_INTERVAL", "GWERKS_SPOT_POLL_ATTEMPTS",
		"GWERKS_READY_POLL_INTERVAL", "GWERKS_READY_POLL_ATTEMPTS",
		"GWERKS_COMMAND_SETTLE", "GWERKS_COMMAND_POLL_INTERVAL", "GWERKS_COMMAND_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	timeouts := LoadTimeouts()

	assert.Equal(t, 30*time.Second, timeouts.SpotPollInterval)
	assert.Equal(t, 60, timeouts.SpotPollAttempts)
	assert.Equal(t, 15*time.Second, timeouts.ReadyPollInterval)
	assert.Equal(t, 60, timeouts.ReadyPollAttempts)
	assert.Equal(t, 3*time.Second, timeouts.CommandSettle)
	assert.Equal(t, 15*time.Second, timeouts.CommandPollInterval)
	assert.Equal(t, time.Hour, timeouts.CommandTimeout)
}

func TestLoadTimeouts_Overrides(t *testing.T) {
	t.Setenv("GWERKS_SPOT_POLL_INTERVAL", "5s")
	t.Setenv("GWERKS_READY_POLL_ATTEMPTS", "3")
	t.Setenv("GWERKS_COMMAND_SETTLE", "not-a-duration")
	t.Setenv("GWERKS_RETRY_MAX_ATTEMPTS", "x")

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Second, timeouts.SpotPollInterval)
	assert.Equal(t, 3, timeouts.ReadyPollAttempts)
	assert.Equal(t, 3*time.Second, timeouts.CommandSettle, "invalid values fall back to the default")
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
}

func TestTestTimeouts(t *testing.T) {
	t.Parallel()
	timeouts := TestTimeouts()

	assert.Zero(t, timeouts.SpotPollInterval)
	assert.Zero(t, timeouts.ReadyPollInterval)
	assert.Zero(t, timeouts.CommandPollInterval)
	assert.Equal(t, 60, timeouts.SpotPollAttempts)
	assert.Equal(t, 60, timeouts.ReadyPollAttempts)
	assert.Equal(t, time.Hour, timeouts.CommandTimeout)
	assert.Equal(t, 2, timeouts.RetryMaxAttempts)
}
