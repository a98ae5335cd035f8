// Package readiness confirms that a machine is usable: its SSM agent is
// connected (online) and its bootstrap script has written the completion
// marker (bootstrapped).
package readiness
