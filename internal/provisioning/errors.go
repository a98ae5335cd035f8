package provisioning

import "errors"

// Error classes shared by all provisioning components. Errors returned by
// the subpackages wrap exactly one of these, so callers can branch with
// errors.Is.
var (
	// ErrConfiguration marks a missing or unrecognized setting. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrConsistency marks cloud state that violates an invariant, such as
	// two live machines sharing a name, or a malformed API response.
	ErrConsistency = errors.New("consistency error")

	// ErrNotFound marks a machine or address that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSafetyCheck marks an operation refused because the target machine
	// was not launched with the expected key pair.
	ErrSafetyCheck = errors.New("safety check failed")

	// ErrCommandFailed marks a remote command that reached a terminal
	// failure status.
	ErrCommandFailed = errors.New("command failed")

	// ErrNotReady marks a machine that never confirmed readiness.
	ErrNotReady = errors.New("machine not ready")
)
