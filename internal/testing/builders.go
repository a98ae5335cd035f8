package testing

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/util/labels"
)

// InstanceBuilder provides a fluent interface for building described
// EC2 instances.
type InstanceBuilder struct {
	inst types.Instance
}

// NewInstanceBuilder creates a running instance with the fixture key pair.
func NewInstanceBuilder(id string) *InstanceBuilder {
	return &InstanceBuilder{
		inst: types.Instance{
			InstanceId:       aws.String(id),
			KeyName:          aws.String(KeyPair),
			PrivateIpAddress: aws.String("10.0.0.10"),
			SubnetId:         aws.String(SubnetID),
			State:            &types.InstanceState{Name: types.InstanceStateNameRunning},
		},
	}
}

// WithName sets the Name and Environment tags.
func (b *InstanceBuilder) WithName(name, env string) *InstanceBuilder {
	return b.WithTag(labels.KeyName, name).WithTag(labels.KeyEnvironment, env)
}

// WithTag adds a tag.
func (b *InstanceBuilder) WithTag(key, value string) *InstanceBuilder {
	b.inst.Tags = append(b.inst.Tags, types.Tag{Key: aws.String(key), Value: aws.String(value)})
	return b
}

// WithKeyName sets the launch key pair.
func (b *InstanceBuilder) WithKeyName(name string) *InstanceBuilder {
	b.inst.KeyName = aws.String(name)
	return b
}

// WithState sets the lifecycle state.
func (b *InstanceBuilder) WithState(state types.InstanceStateName) *InstanceBuilder {
	b.inst.State = &types.InstanceState{Name: state}
	return b
}

// Running sets the state to running.
func (b *InstanceBuilder) Running() *InstanceBuilder {
	return b.WithState(types.InstanceStateNameRunning)
}

// Spot marks the instance as fulfilled from spot request id.
func (b *InstanceBuilder) Spot(requestID string) *InstanceBuilder {
	b.inst.InstanceLifecycle = types.InstanceLifecycleTypeSpot
	b.inst.SpotInstanceRequestId = aws.String(requestID)
	return b
}

// WithPublicIP sets the public address.
func (b *InstanceBuilder) WithPublicIP(ip string) *InstanceBuilder {
	b.inst.PublicIpAddress = aws.String(ip)
	return b
}

// Build returns the instance.
func (b *InstanceBuilder) Build() types.Instance {
	return b.inst
}

// Reservations wraps instances in one reservation each, the shape
// DescribeInstances returns.
func Reservations(instances ...types.Instance) []types.Reservation {
	out := make([]types.Reservation, 0, len(instances))
	for _, inst := range instances {
		out = append(out, types.Reservation{Instances: []types.Instance{inst}})
	}
	return out
}
