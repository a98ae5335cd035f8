package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog holds the site lookup tables machine specs resolve against.
// A spec names a role, subnet and machine type; the catalog maps those
// names to concrete AWS identifiers.
type Catalog struct {
	// DefaultKeyPair is used when a spec does not name a key pair.
	DefaultKeyPair string `yaml:"default_key_pair"`

	// SecurityGroups maps a machine role to its security group IDs.
	SecurityGroups map[string][]string `yaml:"security_groups"`

	// Subnets maps a subnet name to its subnet ID.
	Subnets map[string]string `yaml:"subnets"`

	// AMIs maps a machine type to the image it launches from.
	AMIs map[string]string `yaml:"amis"`

	// InstanceProfiles maps a machine role to its IAM instance profile ARN.
	InstanceProfiles map[string]string `yaml:"instance_profiles"`

	// OutputBucket, when set, receives the full output of remote commands.
	OutputBucket string `yaml:"output_bucket"`
	OutputPrefix string `yaml:"output_prefix"`
}

// LoadCatalog reads and validates a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses and validates a catalog from YAML bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return &cat, nil
}

// Validate checks that every table is present.
func (c *Catalog) Validate() error {
	var errs []error
	if c.DefaultKeyPair == "" {
		errs = append(errs, errors.New("default_key_pair is required"))
	}
	if len(c.SecurityGroups) == 0 {
		errs = append(errs, errors.New("security_groups must not be empty"))
	}
	if len(c.Subnets) == 0 {
		errs = append(errs, errors.New("subnets must not be empty"))
	}
	if len(c.AMIs) == 0 {
		errs = append(errs, errors.New("amis must not be empty"))
	}
	if len(c.InstanceProfiles) == 0 {
		errs = append(errs, errors.New("instance_profiles must not be empty"))
	}
	return errors.Join(errs...)
}
