// Package machine models the declarative description of a machine and the
// values derived from it.
//
// A Spec is decoded from a raw attribute map (YAML or JSON), checked for
// required keys up front, and resolved against a config.Catalog into the
// AMI, subnet, security groups, instance profile, block devices and network
// interface that the compute layer launches with.
//
// Script builds the first-boot bootstrap script for a machine Kind. The
// last command of every script writes MarkerFile, which readiness checks
// look for.
//
// Machine is the runtime view of one bound instance.
package machine
