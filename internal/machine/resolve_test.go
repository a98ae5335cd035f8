package machine

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/provisioning"
)

func testCatalog() *config.Catalog {
	return &config.Catalog{
		DefaultKeyPair:   "ops-key",
		SecurityGroups:   map[string][]string{"web": {"sg-1", "sg-2"}},
		Subnets:          map[string]string{"public-a": "subnet-a"},
		AMIs:             map[string]string{"linux-server": "ami-123"},
		InstanceProfiles: map[string]string{"web": "arn:aws:iam::1:instance-profile/web"},
	}
}

func testSpec() *Spec {
	size := int32(20)
	return &Spec{
		Type: "linux-server", Size: "t3.micro", Role: "web", Service: "shop", Purpose: "frontend",
		Subnet: "public-a", VolumeSize: &size,
	}
}

func TestSpec_Resolve(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	spec := testSpec()

	assert.Equal(t, "ops-key", spec.KeyPair(cat))
	spec.KeyPairName = "mine"
	assert.Equal(t, "mine", spec.KeyPair(cat))

	groups, err := spec.SecurityGroups(cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"sg-1", "sg-2"}, groups)

	subnet, err := spec.SubnetID(cat)
	require.NoError(t, err)
	assert.Equal(t, "subnet-a", subnet)

	ami, err := spec.AMI(cat)
	require.NoError(t, err)
	assert.Equal(t, "ami-123", ami)

	profile, err := spec.InstanceProfile(cat)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::1:instance-profile/web", aws.ToString(profile.Arn))
}

func TestSpec_ResolveUnrecognized(t *testing.T) {
	t.Parallel()
	cat := testCatalog()

	tests := []struct {
		name    string
		mutate  func(*Spec)
		resolve func(*Spec) error
		want    string
	}{
		{
			name:   "role",
			mutate: func(s *Spec) { s.Role = "db" },
			resolve: func(s *Spec) error {
				_, err := s.SecurityGroups(cat)
				return err
			},
			want: "'db' is an unrecognized role",
		},
		{
			name:   "instance profile role",
			mutate: func(s *Spec) { s.Role = "db" },
			resolve: func(s *Spec) error {
				_, err := s.InstanceProfile(cat)
				return err
			},
			want: "'db' is an unrecognized role",
		},
		{
			name:   "subnet",
			mutate: func(s *Spec) { s.Subnet = "private-z" },
			resolve: func(s *Spec) error {
				_, err := s.NetworkInterface(cat)
				return err
			},
			want: "'private-z' is an unrecognized subnet",
		},
		{
			name:   "type",
			mutate: func(s *Spec) { s.Type = "windows" },
			resolve: func(s *Spec) error {
				_, err := s.AMI(cat)
				return err
			},
			want: "'windows' is an unrecognized type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := testSpec()
			tt.mutate(spec)
			err := tt.resolve(spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, provisioning.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpec_NetworkInterface(t *testing.T) {
	t.Parallel()
	spec := testSpec()

	ni, err := spec.NetworkInterface(testCatalog())
	require.NoError(t, err)
	assert.True(t, aws.ToBool(ni.AssociatePublicIpAddress))
	assert.Equal(t, int32(0), aws.ToInt32(ni.DeviceIndex))
	assert.Equal(t, "subnet-a", aws.ToString(ni.SubnetId))
	assert.Equal(t, []string{"sg-1", "sg-2"}, ni.Groups)
}

func TestSpec_BlockDeviceMappings(t *testing.T) {
	t.Parallel()

	t.Run("single volume", func(t *testing.T) {
		t.Parallel()
		bdm := testSpec().BlockDeviceMappings()
		require.Len(t, bdm, 1)
		assert.Equal(t, "/dev/xvda", aws.ToString(bdm[0].DeviceName))
		assert.Equal(t, int32(20), aws.ToInt32(bdm[0].Ebs.VolumeSize))
		assert.Equal(t, types.VolumeType("standard"), bdm[0].Ebs.VolumeType)
	})

	t.Run("root plus additional", func(t *testing.T) {
		t.Parallel()
		root := int32(20)
		spec := testSpec()
		spec.VolumeSize = nil
		spec.RootVolumeSize = &root
		spec.RootVolumeType = "gp3"
		spec.AdditionalVolumeSizes = []int32{10, 10, 10}
		spec.AdditionalVolumeTypes = []string{"gp2", "io1", "st1"}

		bdm := spec.BlockDeviceMappings()
		require.Len(t, bdm, 4)

		devices := make([]string, 0, len(bdm))
		for _, m := range bdm {
			devices = append(devices, aws.ToString(m.DeviceName))
		}
		assert.Equal(t, []string{"/dev/xvda", "/dev/xvdf", "/dev/xvdg", "/dev/xvdh"}, devices)
		assert.Equal(t, int32(20), aws.ToInt32(bdm[0].Ebs.VolumeSize))
		assert.Equal(t, types.VolumeType("gp3"), bdm[0].Ebs.VolumeType)
		assert.Equal(t, types.VolumeType("io1"), bdm[2].Ebs.VolumeType)
		assert.Equal(t, int32(10), aws.ToInt32(bdm[3].Ebs.VolumeSize))
	})
}
