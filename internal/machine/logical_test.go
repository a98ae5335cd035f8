package machine

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/util/labels"
)

func TestFromInstance(t *testing.T) {
	t.Parallel()
	inst := types.Instance{
		InstanceId:        aws.String("i-123"),
		KeyName:           aws.String("ops-key"),
		PrivateIpAddress:  aws.String("10.0.0.5"),
		PublicIpAddress:   aws.String("3.3.3.3"),
		SubnetId:          aws.String("subnet-a"),
		InstanceLifecycle: types.InstanceLifecycleTypeSpot,
		State:             &types.InstanceState{Name: types.InstanceStateNameRunning},
		Tags: []types.Tag{
			{Key: aws.String(labels.KeyName), Value: aws.String("web-Test")},
			{Key: aws.String(labels.KeyEnvironment), Value: aws.String("Test")},
			{Key: aws.String(labels.KeyTimestamp), Value: aws.String("2026-01-01T00:00:00Z")},
		},
	}

	m := FromInstance(inst, config.Runtime{Environment: config.EnvTest, Region: config.RegionUSEast2})

	assert.Equal(t, "web-Test", m.Name)
	assert.Equal(t, config.EnvTest, m.Environment)
	assert.Equal(t, config.RegionUSEast2, m.Region)
	assert.Equal(t, KindLinuxServer, m.Kind)
	assert.Equal(t, "i-123", m.InstanceID)
	assert.Equal(t, "ops-key", m.KeyName)
	assert.Equal(t, types.InstanceStateNameRunning, m.State)
	assert.Equal(t, "2026-01-01T00:00:00Z", m.Timestamp)
	assert.True(t, m.IsSpot())
	assert.Equal(t, "Test", m.TagValue(labels.KeyEnvironment))
	assert.Empty(t, m.TagValue("missing"))
}

func TestMachine_Describe(t *testing.T) {
	t.Parallel()
	m := &Machine{
		Name:       "web-Test",
		InstanceID: "i-123",
		ReservedIP: "4.4.4.4",
		Tags:       map[string]string{"Service": "shop"},
	}

	out := m.Describe(true)
	assert.Contains(t, out, "web-Test")
	assert.Contains(t, out, "i-123")
	assert.Contains(t, out, "Reserved IP")
	assert.Contains(t, out, "4.4.4.4")
	assert.Contains(t, out, "Tag: Service")
	assert.Contains(t, out, "Termination Protection")
}
