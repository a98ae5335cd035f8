package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable polling intervals and attempt budgets.
// These values can be customized via environment variables.
type Timeouts struct {
	SpotPollInterval    time.Duration // Sleep between spot request checks
	SpotPollAttempts    int           // Spot request checks before giving up
	ReadyPollInterval   time.Duration // Sleep between readiness checks
	ReadyPollAttempts   int           // Readiness checks before giving up
	CommandSettle       time.Duration // Pause between sending a command and the first status check
	CommandPollInterval time.Duration // Sleep between command status checks
	CommandTimeout      time.Duration // Default remote command execution timeout
	InstanceRunning     time.Duration // Ceiling for the instance-running waiter
	InstanceTerminated  time.Duration // Ceiling for the instance-terminated waiter
	RetryMaxAttempts    int           // Retries for eventually consistent API calls
	RetryInitialDelay   time.Duration // Initial delay for eventually consistent API calls
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - GWERKS_SPOT_POLL_INTERVAL (default: 30s)
//   - GWERKS_SPOT_POLL_ATTEMPTS (default: 60)
//   - GWERKS_READY_POLL_INTERVAL (default: 15s)
//   - GWERKS_READY_POLL_ATTEMPTS (default: 60)
//   - GWERKS_COMMAND_SETTLE (default: 3s)
//   - GWERKS_COMMAND_POLL_INTERVAL (default: 15s)
//   - GWERKS_COMMAND_TIMEOUT (default: 1h)
//   - GWERKS_TIMEOUT_INSTANCE_RUNNING (default: 15m)
//   - GWERKS_TIMEOUT_INSTANCE_TERMINATED (default: 15m)
//   - GWERKS_RETRY_MAX_ATTEMPTS (default: 5)
//   - GWERKS_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		SpotPollInterval:    parseDuration("GWERKS_SPOT_POLL_INTERVAL", 30*time.Second),
		SpotPollAttempts:    parseInt("GWERKS_SPOT_POLL_ATTEMPTS", 60),
		ReadyPollInterval:   parseDuration("GWERKS_READY_POLL_INTERVAL", 15*time.Second),
		ReadyPollAttempts:   parseInt("GWERKS_READY_POLL_ATTEMPTS", 60),
		CommandSettle:       parseDuration("GWERKS_COMMAND_SETTLE", 3*time.Second),
		CommandPollInterval: parseDuration("GWERKS_COMMAND_POLL_INTERVAL", 15*time.Second),
		CommandTimeout:      parseDuration("GWERKS_COMMAND_TIMEOUT", time.Hour),
		InstanceRunning:     parseDuration("GWERKS_TIMEOUT_INSTANCE_RUNNING", 15*time.Minute),
		InstanceTerminated:  parseDuration("GWERKS_TIMEOUT_INSTANCE_TERMINATED", 15*time.Minute),
		RetryMaxAttempts:    parseInt("GWERKS_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay:   parseDuration("GWERKS_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns timeouts with no sleeps, suitable for unit tests.
// Attempt budgets keep their production values so bounded-retry behavior
// is exercised unchanged.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		SpotPollInterval:    0,
		SpotPollAttempts:    60,
		ReadyPollInterval:   0,
		ReadyPollAttempts:   60,
		CommandSettle:       0,
		CommandPollInterval: 0,
		CommandTimeout:      time.Hour,
		InstanceRunning:     time.Second,
		InstanceTerminated:  time.Second,
		RetryMaxAttempts:    2,
		RetryInitialDelay:   time.Millisecond,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
