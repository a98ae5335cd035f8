package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/util/labels"
)

// FakeEC2 is an in-memory EC2 account. Launched instances are running
// immediately and terminated instances stay visible in the terminated state.
type FakeEC2 struct {
	mu sync.Mutex

	Instances []types.Instance
	Addresses []types.Address
	Protected map[string]bool

	// NextInstanceID is used by RunInstances.
	NextInstanceID string

	// SpotRequestID is returned by RequestSpotInstances.
	SpotRequestID string
	// SpotStatuses are returned by successive DescribeSpotInstanceRequests
	// calls; the last one repeats. A status with an InstanceId adds a
	// running spot instance.
	SpotStatuses  []types.SpotInstanceRequest
	SpotDescribes int

	// CreateTagsErrors are returned by successive CreateTags calls.
	CreateTagsErrors []error

	RunInput  *ec2.RunInstancesInput
	SpotInput *ec2.RequestSpotInstancesInput

	Started    []string
	Stopped    []string
	Terminated []string
}

// NewFakeEC2 creates an account holding instances.
func NewFakeEC2(instances ...types.Instance) *FakeEC2 {
	return &FakeEC2{
		Instances:      instances,
		Protected:      map[string]bool{},
		NextInstanceID: "i-launched",
		SpotRequestID:  "sir-1",
	}
}

// API returns a MockEC2 backed by f.
func (f *FakeEC2) API() *platformaws.MockEC2 {
	return &platformaws.MockEC2{
		RunInstancesFunc:                 f.runInstances,
		RequestSpotInstancesFunc:         f.requestSpotInstances,
		DescribeSpotInstanceRequestsFunc: f.describeSpotInstanceRequests,
		DescribeInstancesFunc:            f.describeInstances,
		StartInstancesFunc:               f.startInstances,
		StopInstancesFunc:                f.stopInstances,
		TerminateInstancesFunc:           f.terminateInstances,
		ModifyInstanceAttributeFunc:      f.modifyInstanceAttribute,
		DescribeInstanceAttributeFunc:    f.describeInstanceAttribute,
		CreateTagsFunc:                   f.createTags,
		DescribeAddressesFunc:            f.describeAddresses,
		AssociateAddressFunc:             f.associateAddress,
	}
}

// Instance returns a copy of the instance with id.
func (f *FakeEC2) Instance(id string) (types.Instance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst := f.instance(id); inst != nil {
		return *inst, true
	}
	return types.Instance{}, false
}

// Tags returns the tags of the instance with id.
func (f *FakeEC2) Tags(id string) map[string]string {
	inst, _ := f.Instance(id)
	tags := map[string]string{}
	for _, t := range inst.Tags {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags
}

// AddressOf returns the public IP associated with instance id.
func (f *FakeEC2) AddressOf(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.Addresses {
		if aws.ToString(a.InstanceId) == id {
			return aws.ToString(a.PublicIp)
		}
	}
	return ""
}

func (f *FakeEC2) instance(id string) *types.Instance {
	for i := range f.Instances {
		if aws.ToString(f.Instances[i].InstanceId) == id {
			return &f.Instances[i]
		}
	}
	return nil
}

func (f *FakeEC2) runInstances(_ context.Context, in *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RunInput = in
	inst := NewInstanceBuilder(f.NextInstanceID).WithKeyName(aws.ToString(in.KeyName)).Build()
	f.Instances = append(f.Instances, inst)
	return &ec2.RunInstancesOutput{Instances: []types.Instance{inst}}, nil
}

func (f *FakeEC2) requestSpotInstances(_ context.Context, in *ec2.RequestSpotInstancesInput) (*ec2.RequestSpotInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpotInput = in
	return &ec2.RequestSpotInstancesOutput{
		SpotInstanceRequests: []types.SpotInstanceRequest{{SpotInstanceRequestId: aws.String(f.SpotRequestID)}},
	}, nil
}

func (f *FakeEC2) describeSpotInstanceRequests(_ context.Context, _ *ec2.DescribeSpotInstanceRequestsInput) (*ec2.DescribeSpotInstanceRequestsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpotDescribes++
	if len(f.SpotStatuses) == 0 {
		return &ec2.DescribeSpotInstanceRequestsOutput{}, nil
	}
	idx := f.SpotDescribes - 1
	if idx >= len(f.SpotStatuses) {
		idx = len(f.SpotStatuses) - 1
	}
	status := f.SpotStatuses[idx]
	if id := aws.ToString(status.InstanceId); id != "" && f.instance(id) == nil {
		keyName := ""
		if f.SpotInput != nil && f.SpotInput.LaunchSpecification != nil {
			keyName = aws.ToString(f.SpotInput.LaunchSpecification.KeyName)
		}
		f.Instances = append(f.Instances, NewInstanceBuilder(id).WithKeyName(keyName).Spot(f.SpotRequestID).Build())
	}
	return &ec2.DescribeSpotInstanceRequestsOutput{SpotInstanceRequests: []types.SpotInstanceRequest{status}}, nil
}

func (f *FakeEC2) describeInstances(_ context.Context, in *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []types.Instance
	for _, inst := range f.Instances {
		if len(in.InstanceIds) > 0 && !contains(in.InstanceIds, aws.ToString(inst.InstanceId)) {
			continue
		}
		if !matchesFilters(inst.Tags, in.Filters) {
			continue
		}
		matched = append(matched, inst)
	}
	if len(in.InstanceIds) > 0 && len(matched) == 0 {
		return nil, APIError(platformaws.CodeInstanceNotFound)
	}
	return &ec2.DescribeInstancesOutput{Reservations: Reservations(matched...)}, nil
}

func (f *FakeEC2) setState(ids []string, state types.InstanceStateName, record *[]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		inst := f.instance(id)
		if inst == nil {
			return APIError(platformaws.CodeInstanceNotFound)
		}
		inst.State = &types.InstanceState{Name: state}
		*record = append(*record, id)
	}
	return nil
}

func (f *FakeEC2) startInstances(_ context.Context, in *ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error) {
	return &ec2.StartInstancesOutput{}, f.setState(in.InstanceIds, types.InstanceStateNamePending, &f.Started)
}

func (f *FakeEC2) stopInstances(_ context.Context, in *ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error) {
	return &ec2.StopInstancesOutput{}, f.setState(in.InstanceIds, types.InstanceStateNameStopping, &f.Stopped)
}

func (f *FakeEC2) terminateInstances(_ context.Context, in *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error) {
	f.mu.Lock()
	for _, id := range in.InstanceIds {
		if f.Protected[id] {
			f.mu.Unlock()
			return nil, APIError("OperationNotPermitted")
		}
	}
	f.mu.Unlock()
	return &ec2.TerminateInstancesOutput{}, f.setState(in.InstanceIds, types.InstanceStateNameTerminated, &f.Terminated)
}

func (f *FakeEC2) modifyInstanceAttribute(_ context.Context, in *ec2.ModifyInstanceAttributeInput) (*ec2.ModifyInstanceAttributeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.DisableApiTermination != nil {
		f.Protected[aws.ToString(in.InstanceId)] = aws.ToBool(in.DisableApiTermination.Value)
	}
	return &ec2.ModifyInstanceAttributeOutput{}, nil
}

func (f *FakeEC2) describeInstanceAttribute(_ context.Context, in *ec2.DescribeInstanceAttributeInput) (*ec2.DescribeInstanceAttributeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &ec2.DescribeInstanceAttributeOutput{
		InstanceId:            in.InstanceId,
		DisableApiTermination: &types.AttributeBooleanValue{Value: aws.Bool(f.Protected[aws.ToString(in.InstanceId)])},
	}, nil
}

func (f *FakeEC2) createTags(_ context.Context, in *ec2.CreateTagsInput) (*ec2.CreateTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.CreateTagsErrors) > 0 {
		err := f.CreateTagsErrors[0]
		f.CreateTagsErrors = f.CreateTagsErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, id := range in.Resources {
		inst := f.instance(id)
		if inst == nil {
			return nil, APIError(platformaws.CodeInstanceNotFound)
		}
		for _, t := range in.Tags {
			inst.Tags = setTag(inst.Tags, t)
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}

func (f *FakeEC2) describeAddresses(_ context.Context, in *ec2.DescribeAddressesInput) (*ec2.DescribeAddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []types.Address
	for _, a := range f.Addresses {
		if addressMatches(a, in.Filters) {
			out = append(out, a)
		}
	}
	return &ec2.DescribeAddressesOutput{Addresses: out}, nil
}

func (f *FakeEC2) associateAddress(_ context.Context, in *ec2.AssociateAddressInput) (*ec2.AssociateAddressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Addresses {
		a := &f.Addresses[i]
		if aws.ToString(a.AllocationId) != aws.ToString(in.AllocationId) {
			continue
		}
		if a.InstanceId != nil {
			return nil, APIError("Resource.AlreadyAssociated")
		}
		assoc := "eipassoc-" + aws.ToString(in.InstanceId)
		a.InstanceId = in.InstanceId
		a.AssociationId = aws.String(assoc)
		return &ec2.AssociateAddressOutput{AssociationId: aws.String(assoc)}, nil
	}
	return nil, APIError("InvalidAllocationID.NotFound")
}

// ReservedAddress builds an unassociated address, optionally in pool.
func ReservedAddress(ip, allocationID, pool string) types.Address {
	a := types.Address{PublicIp: aws.String(ip), AllocationId: aws.String(allocationID)}
	if pool != "" {
		a.Tags = []types.Tag{{Key: aws.String(labels.KeyEIPPool), Value: aws.String(pool)}}
	}
	return a
}

func addressMatches(a types.Address, filters []types.Filter) bool {
	for _, flt := range filters {
		name := aws.ToString(flt.Name)
		switch {
		case name == "instance-id":
			if !contains(flt.Values, aws.ToString(a.InstanceId)) {
				return false
			}
		case strings.HasPrefix(name, "tag:"):
			if !matchesFilters(a.Tags, []types.Filter{flt}) {
				return false
			}
		}
	}
	return true
}

func matchesFilters(tags []types.Tag, filters []types.Filter) bool {
	for _, flt := range filters {
		key, ok := strings.CutPrefix(aws.ToString(flt.Name), "tag:")
		if !ok {
			continue
		}
		found := false
		for _, t := range tags {
			if aws.ToString(t.Key) == key && contains(flt.Values, aws.ToString(t.Value)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func setTag(tags []types.Tag, tag types.Tag) []types.Tag {
	for i := range tags {
		if aws.ToString(tags[i].Key) == aws.ToString(tag.Key) {
			tags[i].Value = tag.Value
			return tags
		}
	}
	return append(tags, tag)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// APIError returns an error carrying an AWS API error code.
func APIError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}
