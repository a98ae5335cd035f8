package machine

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/util/labels"
)

// Machine is one bound instance.
type Machine struct {
	Name        string
	Environment config.Environment
	Region      config.Region
	Kind        Kind

	InstanceID    string
	KeyName       string
	Platform      string
	Lifecycle     types.InstanceLifecycleType
	SpotRequestID string

	PrivateIP  string
	PublicIP   string
	ReservedIP string
	SubnetID   string

	State     types.InstanceStateName
	Timestamp string
	Tags      map[string]string
}

// FromInstance builds a Machine from a described instance. Kind comes from
// the Instance-Type tag and defaults to KindLinuxServer.
func FromInstance(inst types.Instance, rt config.Runtime) *Machine {
	tags := make(map[string]string, len(inst.Tags))
	for _, t := range inst.Tags {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}

	m := &Machine{
		Name:          tags[labels.KeyName],
		Environment:   config.Environment(tags[labels.KeyEnvironment]),
		Region:        rt.Region,
		Kind:          KindLinuxServer,
		InstanceID:    aws.ToString(inst.InstanceId),
		KeyName:       aws.ToString(inst.KeyName),
		Platform:      aws.ToString(inst.PlatformDetails),
		Lifecycle:     inst.InstanceLifecycle,
		SpotRequestID: aws.ToString(inst.SpotInstanceRequestId),
		PrivateIP:     aws.ToString(inst.PrivateIpAddress),
		PublicIP:      aws.ToString(inst.PublicIpAddress),
		SubnetID:      aws.ToString(inst.SubnetId),
		Timestamp:     tags[labels.KeyTimestamp],
		Tags:          tags,
	}
	if m.Environment == "" {
		m.Environment = rt.Environment
	}
	if kind, err := ParseKind(tags[labels.KeyInstanceType]); err == nil {
		m.Kind = kind
	}
	if inst.State != nil {
		m.State = inst.State.Name
	}
	return m
}

// TagValue returns the value of tag key, or "" when absent.
func (m *Machine) TagValue(key string) string {
	return m.Tags[key]
}

// IsSpot reports whether the machine was obtained through a spot request.
func (m *Machine) IsSpot() bool {
	return m.SpotRequestID != "" || m.Lifecycle == types.InstanceLifecycleTypeSpot
}
