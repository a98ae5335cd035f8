// Package config defines the configuration values threaded through gwerks.
//
// [Runtime] selects the environment, region and AWS profile a process works
// against. [Timeouts] carries every polling interval and attempt budget.
// [Catalog] holds the site lookup tables that machine specs resolve against
// (security groups, subnets, AMIs, instance profiles, default key pair).
package config
