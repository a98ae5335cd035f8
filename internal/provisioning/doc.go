// Package provisioning provides the types shared by the machine provisioning
// and binding subpackages.
//
// # Subpackages
//
//   - compute/: bind-or-launch, spot requests, tagging, reserved IPs, lifecycle
//   - readiness/: agent connectivity and bootstrap-marker confirmation
//   - remote/: remote command execution and status polling
//
// # Core Types
//
// Observer receives the human-readable narrative of every operation as
// structured events. The error sentinels in errors.go classify failures
// into configuration, consistency, not-found, safety-check and command errors.
package provisioning
