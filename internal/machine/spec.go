package machine

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// MaxAdditionalVolumes is the number of device letters (f through p)
// available to extra volumes.
const MaxAdditionalVolumes = 11

// requiredKeys are checked in order; the first missing one is reported.
var requiredKeys = []string{"type", "size", "role", "service", "purpose"}

// Spec is a validated machine description.
type Spec struct {
	Type    string `mapstructure:"type"`
	Size    string `mapstructure:"size"`
	Role    string `mapstructure:"role"`
	Service string `mapstructure:"service"`
	Purpose string `mapstructure:"purpose"`
	Subnet  string `mapstructure:"subnet"`

	// Exactly one sizing mode applies: VolumeSize gives a single root
	// volume, otherwise RootVolumeSize plus the additional volumes.
	VolumeSize            *int32   `mapstructure:"volume_size"`
	RootVolumeSize        *int32   `mapstructure:"root_volume_size"`
	RootVolumeType        string   `mapstructure:"root_volume_type"`
	AdditionalVolumeSizes []int32  `mapstructure:"additional_volume_sizes"`
	AdditionalVolumeTypes []string `mapstructure:"additional_volume_types"`

	KeyPairName            string            `mapstructure:"key_pair_name"`
	AssignPublicIP         *bool             `mapstructure:"assign_public_ip"`
	LaunchAsSpot           bool              `mapstructure:"launch_as_spot"`
	ElasticIP              string            `mapstructure:"elastic_ip"`
	ElasticIPFromPool      string            `mapstructure:"elastic_ip_from_pool"`
	ProtectFromTermination *bool             `mapstructure:"protect_from_termination"`
	Tags                   map[string]string `mapstructure:"tags"`
	Timezone               string            `mapstructure:"timezone"`
	ExpectedTTL            string            `mapstructure:"expectedTTL"`

	// Extra holds unrecognized keys so callers can pass through their own
	// attributes.
	Extra map[string]any `mapstructure:",remain"`
}

// ParseSpec checks raw for required keys and decodes it into a Spec.
// A missing key is a configuration error naming that key.
func ParseSpec(raw map[string]any) (*Spec, error) {
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, missingKey(key)
		}
	}
	_, hasVolume := raw["volume_size"]
	_, hasRootVolume := raw["root_volume_size"]
	if !hasVolume && !hasRootVolume {
		return nil, fmt.Errorf("%w: either \"volume_size\" or \"root_volume_size\" is required in the machine spec",
			provisioning.ErrConfiguration)
	}
	if _, ok := raw["subnet"]; !ok {
		return nil, missingKey("subnet")
	}

	var spec Spec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
		DecodeHook:       tagListHook,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spec decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: invalid machine spec: %w", provisioning.ErrConfiguration, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks a Spec built in code the same way ParseSpec checks a
// decoded one.
func (s *Spec) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"type", s.Type},
		{"size", s.Size},
		{"role", s.Role},
		{"service", s.Service},
		{"purpose", s.Purpose},
	}
	for _, r := range required {
		if r.value == "" {
			return missingKey(r.key)
		}
	}
	if s.VolumeSize == nil && s.RootVolumeSize == nil {
		return fmt.Errorf("%w: either \"volume_size\" or \"root_volume_size\" is required in the machine spec",
			provisioning.ErrConfiguration)
	}
	if s.Subnet == "" {
		return missingKey("subnet")
	}

	if s.VolumeSize == nil {
		if len(s.AdditionalVolumeSizes) > MaxAdditionalVolumes {
			return fmt.Errorf("%w: \"additional_volume_sizes\" allows at most %d volumes, got %d",
				provisioning.ErrConfiguration, MaxAdditionalVolumes, len(s.AdditionalVolumeSizes))
		}
		if len(s.AdditionalVolumeTypes) < len(s.AdditionalVolumeSizes) {
			return fmt.Errorf("%w: \"additional_volume_types\" needs an entry for each of the %d additional volumes",
				provisioning.ErrConfiguration, len(s.AdditionalVolumeSizes))
		}
	}
	return nil
}

// PublicIP reports whether the primary interface gets a public address.
func (s *Spec) PublicIP() bool {
	return s.AssignPublicIP == nil || *s.AssignPublicIP
}

// Protected reports whether termination protection should be enabled.
func (s *Spec) Protected() bool {
	return s.ProtectFromTermination == nil || *s.ProtectFromTermination
}

func missingKey(key string) error {
	return fmt.Errorf("%w: %q is required in the machine spec", provisioning.ErrConfiguration, key)
}

var stringMapType = reflect.TypeOf(map[string]string{})

// tagListHook accepts tags written as a list of {Key, Value} objects, the
// shape EC2 uses, in addition to a plain map.
func tagListHook(from, to reflect.Type, data any) (any, error) {
	if to != stringMapType || from.Kind() != reflect.Slice {
		return data, nil
	}
	items, ok := data.([]any)
	if !ok {
		return data, nil
	}

	tags := make(map[string]string, len(items))
	for i, item := range items {
		var pair struct {
			Key   string `mapstructure:"Key"`
			Value string `mapstructure:"Value"`
		}
		if err := mapstructure.WeakDecode(item, &pair); err != nil {
			return nil, fmt.Errorf("tags[%d]: %w", i, err)
		}
		if pair.Key == "" {
			return nil, fmt.Errorf("tags[%d]: Key is required", i)
		}
		tags[pair.Key] = pair.Value
	}
	return tags, nil
}
