// Package compute binds logical machine names to EC2 instances.
//
// Binder.BindOrLaunch looks up the single live instance tagged with a
// normalized name and the current environment, or launches one from a
// machine.Spec (on-demand or spot), tags it, attaches a reserved IP,
// enables termination protection and waits for readiness. At most one
// live instance may match a name in an environment; finding more is a
// consistency error.
//
// Start, Stop and Terminate treat a missing machine as a no-op and refuse
// to touch a machine launched with a different key pair. Only Terminate
// can override that check.
package compute
