package handlers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gwerks/gwerks/internal/machine"
)

// loadSpec reads a machine spec from a YAML (or JSON) file.
func loadSpec(path string) (*machine.Spec, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse spec file %s: %w", path, err)
	}
	spec, err := machine.ParseSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid spec %s: %w", path, err)
	}
	return spec, nil
}
