package config

import (
	"fmt"
	"os"
)

// Environment variable names read by LoadRuntime.
const (
	EnvKey     = "RUNTIME_ENV"
	RegionKey  = "RUNTIME_REG"
	ProfileKey = "AWS_PROFILE"
)

// Environment is one of the three deployment environments.
type Environment string

const (
	// EnvDev is the development environment and the default when unset.
	EnvDev Environment = "Dev"
	// EnvTest is the test environment.
	EnvTest Environment = "Test"
	// EnvLive is the production environment.
	EnvLive Environment = "Live"
)

// legacyDevEnvironment is the tag value older development machines carry.
const legacyDevEnvironment Environment = "Development"

// ValidEnvironments returns all supported environments.
func ValidEnvironments() []Environment {
	return []Environment{EnvDev, EnvTest, EnvLive}
}

// IsValid returns true if the environment is supported.
func (e Environment) IsValid() bool {
	switch e {
	case EnvDev, EnvTest, EnvLive:
		return true
	default:
		return false
	}
}

// IsLive reports whether e is the production environment.
func (e Environment) IsLive() bool { return e == EnvLive }

// IsDev reports whether e is the development environment.
func (e Environment) IsDev() bool { return e == EnvDev }

// LegacyAlias returns the older environment tag value still searched for
// in development, and false for every other environment.
func (e Environment) LegacyAlias() (Environment, bool) {
	if e.IsDev() {
		return legacyDevEnvironment, true
	}
	return "", false
}

// ParseEnvironment validates s as an Environment.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(s)
	if !env.IsValid() {
		return "", fmt.Errorf("unsupported environment: %q (must be one of %v)", s, ValidEnvironments())
	}
	return env, nil
}

// Region is one of the supported AWS regions.
type Region string

const (
	// RegionUSEast1 is the default region.
	RegionUSEast1 Region = "us-east-1"
	// RegionUSEast2 is the secondary region.
	RegionUSEast2 Region = "us-east-2"
)

// ValidRegions returns all supported regions.
func ValidRegions() []Region {
	return []Region{RegionUSEast1, RegionUSEast2}
}

// IsValid returns true if the region is supported.
func (r Region) IsValid() bool {
	switch r {
	case RegionUSEast1, RegionUSEast2:
		return true
	default:
		return false
	}
}

// ParseRegion validates s as a Region.
func ParseRegion(s string) (Region, error) {
	r := Region(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unsupported region: %q (must be one of %v)", s, ValidRegions())
	}
	return r, nil
}

// DefaultProfile is the AWS shared-config profile used when none is set.
const DefaultProfile = "default"

// Runtime is the environment, region and credentials profile an operation
// runs against. It is passed explicitly rather than read from globals.
type Runtime struct {
	Environment Environment
	Region      Region
	Profile     string
}

// DefaultRuntime returns the runtime used when nothing is configured.
func DefaultRuntime() Runtime {
	return Runtime{Environment: EnvDev, Region: RegionUSEast1, Profile: DefaultProfile}
}

// LoadRuntime reads the runtime from the process environment. Unset values
// fall back to DefaultRuntime; set but unsupported values are an error.
//
// Environment Variables:
//   - RUNTIME_ENV (default: Dev)
//   - RUNTIME_REG (default: us-east-1)
//   - AWS_PROFILE (default: default)
func LoadRuntime() (Runtime, error) {
	rt := DefaultRuntime()

	if v := os.Getenv(EnvKey); v != "" {
		env, err := ParseEnvironment(v)
		if err != nil {
			return Runtime{}, err
		}
		rt.Environment = env
	}

	if v := os.Getenv(RegionKey); v != "" {
		r, err := ParseRegion(v)
		if err != nil {
			return Runtime{}, err
		}
		rt.Region = r
	}

	if v := os.Getenv(ProfileKey); v != "" {
		rt.Profile = v
	}

	return rt, nil
}

// WithEnvironment returns a copy of rt switched to env.
func (rt Runtime) WithEnvironment(env Environment) (Runtime, error) {
	if !env.IsValid() {
		return rt, fmt.Errorf("unsupported environment: %q (must be one of %v)", env, ValidEnvironments())
	}
	rt.Environment = env
	return rt, nil
}

// Validate checks every field of the runtime.
func (rt Runtime) Validate() error {
	if !rt.Environment.IsValid() {
		return fmt.Errorf("unsupported environment: %q", rt.Environment)
	}
	if !rt.Region.IsValid() {
		return fmt.Errorf("unsupported region: %q", rt.Region)
	}
	if rt.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	return nil
}

// String renders the runtime for narrative output.
func (rt Runtime) String() string {
	return fmt.Sprintf("%s/%s (profile %s)", rt.Environment, rt.Region, rt.Profile)
}
