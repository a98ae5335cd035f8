package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// errNotMocked is returned by mock methods whose function field is unset.
var errNotMocked = errors.New("mock: method not configured")

// MockEC2 is a mock implementation of EC2API.
type MockEC2 struct {
	RunInstancesFunc                 func(ctx context.Context, params *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)
	RequestSpotInstancesFunc         func(ctx context.Context, params *ec2.RequestSpotInstancesInput) (*ec2.RequestSpotInstancesOutput, error)
	DescribeSpotInstanceRequestsFunc func(ctx context.Context, params *ec2.DescribeSpotInstanceRequestsInput) (*ec2.DescribeSpotInstanceRequestsOutput, error)
	DescribeInstancesFunc            func(ctx context.Context, params *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	StartInstancesFunc               func(ctx context.Context, params *ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error)
	StopInstancesFunc                func(ctx context.Context, params *ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error)
	TerminateInstancesFunc           func(ctx context.Context, params *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	ModifyInstanceAttributeFunc      func(ctx context.Context, params *ec2.ModifyInstanceAttributeInput) (*ec2.ModifyInstanceAttributeOutput, error)
	DescribeInstanceAttributeFunc    func(ctx context.Context, params *ec2.DescribeInstanceAttributeInput) (*ec2.DescribeInstanceAttributeOutput, error)
	CreateTagsFunc                   func(ctx context.Context, params *ec2.CreateTagsInput) (*ec2.CreateTagsOutput, error)
	DescribeAddressesFunc            func(ctx context.Context, params *ec2.DescribeAddressesInput) (*ec2.DescribeAddressesOutput, error)
	AssociateAddressFunc             func(ctx context.Context, params *ec2.AssociateAddressInput) (*ec2.AssociateAddressOutput, error)
}

// RunInstances implements EC2API.
func (m *MockEC2) RunInstances(ctx context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	if m.RunInstancesFunc != nil {
		return m.RunInstancesFunc(ctx, params)
	}
	return &ec2.RunInstancesOutput{}, nil
}

// RequestSpotInstances implements EC2API.
func (m *MockEC2) RequestSpotInstances(ctx context.Context, params *ec2.RequestSpotInstancesInput, _ ...func(*ec2.Options)) (*ec2.RequestSpotInstancesOutput, error) {
	if m.RequestSpotInstancesFunc != nil {
		return m.RequestSpotInstancesFunc(ctx, params)
	}
	return &ec2.RequestSpotInstancesOutput{}, nil
}

// DescribeSpotInstanceRequests implements EC2API.
func (m *MockEC2) DescribeSpotInstanceRequests(ctx context.Context, params *ec2.DescribeSpotInstanceRequestsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSpotInstanceRequestsOutput, error) {
	if m.DescribeSpotInstanceRequestsFunc != nil {
		return m.DescribeSpotInstanceRequestsFunc(ctx, params)
	}
	return &ec2.DescribeSpotInstanceRequestsOutput{}, nil
}

// DescribeInstances implements EC2API.
func (m *MockEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(ctx, params)
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

// StartInstances implements EC2API.
func (m *MockEC2) StartInstances(ctx context.Context, params *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	if m.StartInstancesFunc != nil {
		return m.StartInstancesFunc(ctx, params)
	}
	return &ec2.StartInstancesOutput{}, nil
}

// StopInstances implements EC2API.
func (m *MockEC2) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	if m.StopInstancesFunc != nil {
		return m.StopInstancesFunc(ctx, params)
	}
	return &ec2.StopInstancesOutput{}, nil
}

// TerminateInstances implements EC2API.
func (m *MockEC2) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	if m.TerminateInstancesFunc != nil {
		return m.TerminateInstancesFunc(ctx, params)
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

// ModifyInstanceAttribute implements EC2API.
func (m *MockEC2) ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error) {
	if m.ModifyInstanceAttributeFunc != nil {
		return m.ModifyInstanceAttributeFunc(ctx, params)
	}
	return &ec2.ModifyInstanceAttributeOutput{}, nil
}

// DescribeInstanceAttribute implements EC2API.
func (m *MockEC2) DescribeInstanceAttribute(ctx context.Context, params *ec2.DescribeInstanceAttributeInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstanceAttributeOutput, error) {
	if m.DescribeInstanceAttributeFunc != nil {
		return m.DescribeInstanceAttributeFunc(ctx, params)
	}
	return &ec2.DescribeInstanceAttributeOutput{}, nil
}

// CreateTags implements EC2API.
func (m *MockEC2) CreateTags(ctx context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	if m.CreateTagsFunc != nil {
		return m.CreateTagsFunc(ctx, params)
	}
	return &ec2.CreateTagsOutput{}, nil
}

// DescribeAddresses implements EC2API.
func (m *MockEC2) DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error) {
	if m.DescribeAddressesFunc != nil {
		return m.DescribeAddressesFunc(ctx, params)
	}
	return &ec2.DescribeAddressesOutput{}, nil
}

// AssociateAddress implements EC2API.
func (m *MockEC2) AssociateAddress(ctx context.Context, params *ec2.AssociateAddressInput, _ ...func(*ec2.Options)) (*ec2.AssociateAddressOutput, error) {
	if m.AssociateAddressFunc != nil {
		return m.AssociateAddressFunc(ctx, params)
	}
	return &ec2.AssociateAddressOutput{}, nil
}

// MockSSM is a mock implementation of SSMAPI.
type MockSSM struct {
	SendCommandFunc          func(ctx context.Context, params *ssm.SendCommandInput) (*ssm.SendCommandOutput, error)
	GetCommandInvocationFunc func(ctx context.Context, params *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error)
	GetConnectionStatusFunc  func(ctx context.Context, params *ssm.GetConnectionStatusInput) (*ssm.GetConnectionStatusOutput, error)
}

// SendCommand implements SSMAPI.
func (m *MockSSM) SendCommand(ctx context.Context, params *ssm.SendCommandInput, _ ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	if m.SendCommandFunc != nil {
		return m.SendCommandFunc(ctx, params)
	}
	return nil, errNotMocked
}

// GetCommandInvocation implements SSMAPI.
func (m *MockSSM) GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, _ ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error) {
	if m.GetCommandInvocationFunc != nil {
		return m.GetCommandInvocationFunc(ctx, params)
	}
	return nil, errNotMocked
}

// GetConnectionStatus implements SSMAPI.
func (m *MockSSM) GetConnectionStatus(ctx context.Context, params *ssm.GetConnectionStatusInput, _ ...func(*ssm.Options)) (*ssm.GetConnectionStatusOutput, error) {
	if m.GetConnectionStatusFunc != nil {
		return m.GetConnectionStatusFunc(ctx, params)
	}
	return nil, errNotMocked
}

// MockSecrets is a mock implementation of SecretsAPI.
type MockSecrets struct {
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
}

// GetSecretValue implements SecretsAPI.
func (m *MockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if m.GetSecretValueFunc != nil {
		return m.GetSecretValueFunc(ctx, params)
	}
	return nil, errNotMocked
}

// MockS3 is a mock implementation of S3API.
type MockS3 struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

// GetObject implements S3API.
func (m *MockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params)
	}
	return nil, errNotMocked
}

var (
	_ EC2API     = (*MockEC2)(nil)
	_ SSMAPI     = (*MockSSM)(nil)
	_ SecretsAPI = (*MockSecrets)(nil)
	_ S3API      = (*MockS3)(nil)
)
