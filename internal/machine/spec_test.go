package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/provisioning"
)

func validRaw() map[string]any {
	return map[string]any{
		"type":        "linux-server",
		"size":        "t3.micro",
		"role":        "web",
		"service":     "shop",
		"purpose":     "frontend",
		"subnet":      "public-a",
		"volume_size": 20,
	}
}

func TestParseSpec_MissingRequiredKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"type", "size", "role", "service", "purpose", "subnet"} {
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			raw := validRaw()
			delete(raw, key)

			_, err := ParseSpec(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, provisioning.ErrConfiguration)
			assert.Contains(t, err.Error(), `"`+key+`"`)
		})
	}
}

func TestParseSpec_MissingVolumeSize(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	delete(raw, "volume_size")

	_, err := ParseSpec(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, provisioning.ErrConfiguration)
	assert.Contains(t, err.Error(), "volume_size")
	assert.Contains(t, err.Error(), "root_volume_size")

	raw["root_volume_size"] = 30
	spec, err := ParseSpec(raw)
	require.NoError(t, err)
	require.NotNil(t, spec.RootVolumeSize)
	assert.Equal(t, int32(30), *spec.RootVolumeSize)
}

func TestParseSpec_Decodes(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	raw["launch_as_spot"] = true
	raw["assign_public_ip"] = false
	raw["expectedTTL"] = 48
	raw["timezone"] = "UTC"
	raw["owner"] = "ops"
	raw["tags"] = map[string]any{"Team": "core"}

	spec, err := ParseSpec(raw)
	require.NoError(t, err)

	assert.Equal(t, "linux-server", spec.Type)
	assert.Equal(t, "t3.micro", spec.Size)
	assert.True(t, spec.LaunchAsSpot)
	assert.False(t, spec.PublicIP())
	assert.True(t, spec.Protected())
	assert.Equal(t, "48", spec.ExpectedTTL)
	assert.Equal(t, "UTC", spec.Timezone)
	assert.Equal(t, map[string]string{"Team": "core"}, spec.Tags)
	assert.Equal(t, "ops", spec.Extra["owner"])
}

func TestParseSpec_TagList(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	raw["tags"] = []any{
		map[string]any{"Key": "Team", "Value": "core"},
		map[string]any{"Key": "Cost", "Value": 12},
	}

	spec, err := ParseSpec(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Team": "core", "Cost": "12"}, spec.Tags)
}

func TestParseSpec_TagListMissingKey(t *testing.T) {
	t.Parallel()
	raw := validRaw()
	raw["tags"] = []any{map[string]any{"Value": "x"}}

	_, err := ParseSpec(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, provisioning.ErrConfiguration)
}

func TestSpec_ValidateAdditionalVolumes(t *testing.T) {
	t.Parallel()

	root := int32(20)
	tests := []struct {
		name    string
		sizes   []int32
		types   []string
		wantErr string
	}{
		{name: "matching types", sizes: []int32{10, 10}, types: []string{"gp3", "gp3"}},
		{name: "missing types", sizes: []int32{10, 10}, types: []string{"gp3"}, wantErr: "additional_volume_types"},
		{
			name:    "too many volumes",
			sizes:   make([]int32, MaxAdditionalVolumes+1),
			types:   make([]string, MaxAdditionalVolumes+1),
			wantErr: "additional_volume_sizes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := &Spec{
				Type: "linux-server", Size: "t3.micro", Role: "web", Service: "s", Purpose: "p", Subnet: "a",
				RootVolumeSize:        &root,
				AdditionalVolumeSizes: tt.sizes,
				AdditionalVolumeTypes: tt.types,
			}
			err := spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, provisioning.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
