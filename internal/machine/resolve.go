package machine

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/provisioning"
)

const (
	rootDeviceName        = "/dev/xvda"
	defaultRootVolumeType = "standard"
	volumeLetters         = "fghijklmnop"
)

func unrecognized(field, value string) error {
	return fmt.Errorf("%w: '%s' is an unrecognized %s", provisioning.ErrConfiguration, value, field)
}

// KeyPair returns the spec's key pair or the catalog default.
func (s *Spec) KeyPair(cat *config.Catalog) string {
	if s.KeyPairName != "" {
		return s.KeyPairName
	}
	return cat.DefaultKeyPair
}

// SecurityGroups resolves the spec's role to security group IDs.
func (s *Spec) SecurityGroups(cat *config.Catalog) ([]string, error) {
	groups, ok := cat.SecurityGroups[s.Role]
	if !ok {
		return nil, unrecognized("role", s.Role)
	}
	return groups, nil
}

// SubnetID resolves the spec's subnet name.
func (s *Spec) SubnetID(cat *config.Catalog) (string, error) {
	id, ok := cat.Subnets[s.Subnet]
	if !ok {
		return "", unrecognized("subnet", s.Subnet)
	}
	return id, nil
}

// AMI resolves the spec's machine type to an image ID.
func (s *Spec) AMI(cat *config.Catalog) (string, error) {
	ami, ok := cat.AMIs[s.Type]
	if !ok {
		return "", unrecognized("type", s.Type)
	}
	return ami, nil
}

// InstanceProfile resolves the spec's role to an IAM instance profile.
func (s *Spec) InstanceProfile(cat *config.Catalog) (*types.IamInstanceProfileSpecification, error) {
	arn, ok := cat.InstanceProfiles[s.Role]
	if !ok {
		return nil, unrecognized("role", s.Role)
	}
	return &types.IamInstanceProfileSpecification{Arn: aws.String(arn)}, nil
}

// NetworkInterface builds the primary interface from the resolved subnet
// and security groups.
func (s *Spec) NetworkInterface(cat *config.Catalog) (types.InstanceNetworkInterfaceSpecification, error) {
	groups, err := s.SecurityGroups(cat)
	if err != nil {
		return types.InstanceNetworkInterfaceSpecification{}, err
	}
	subnetID, err := s.SubnetID(cat)
	if err != nil {
		return types.InstanceNetworkInterfaceSpecification{}, err
	}
	return types.InstanceNetworkInterfaceSpecification{
		AssociatePublicIpAddress: aws.Bool(s.PublicIP()),
		DeviceIndex:              aws.Int32(0),
		SubnetId:                 aws.String(subnetID),
		Groups:                   groups,
	}, nil
}

// BlockDeviceMappings returns the root volume followed by any additional
// volumes on /dev/xvdf onward.
func (s *Spec) BlockDeviceMappings() []types.BlockDeviceMapping {
	rootType := s.RootVolumeType
	if rootType == "" {
		rootType = defaultRootVolumeType
	}

	if s.VolumeSize != nil {
		return []types.BlockDeviceMapping{ebsVolume(rootDeviceName, *s.VolumeSize, rootType)}
	}

	var rootSize int32
	if s.RootVolumeSize != nil {
		rootSize = *s.RootVolumeSize
	}
	bdm := make([]types.BlockDeviceMapping, 0, 1+len(s.AdditionalVolumeSizes))
	bdm = append(bdm, ebsVolume(rootDeviceName, rootSize, rootType))
	for i, size := range s.AdditionalVolumeSizes {
		if i >= len(volumeLetters) {
			break
		}
		volumeType := defaultRootVolumeType
		if i < len(s.AdditionalVolumeTypes) {
			volumeType = s.AdditionalVolumeTypes[i]
		}
		bdm = append(bdm, ebsVolume("/dev/xvd"+string(volumeLetters[i]), size, volumeType))
	}
	return bdm
}

func ebsVolume(device string, size int32, volumeType string) types.BlockDeviceMapping {
	return types.BlockDeviceMapping{
		DeviceName: aws.String(device),
		Ebs: &types.EbsBlockDevice{
			VolumeSize: aws.Int32(size),
			VolumeType: types.VolumeType(volumeType),
		},
	}
}
