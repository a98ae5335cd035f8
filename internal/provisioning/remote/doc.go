// Package remote runs shell commands on bound machines through the SSM
// agent and polls the invocation until it reaches a terminal status.
package remote
