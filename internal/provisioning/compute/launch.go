package compute

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/metrics"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/util/labels"
	"github.com/gwerks/gwerks/internal/util/retry"
)

var errSpotPending = errors.New("spot request not fulfilled yet")

// launchParams are the resolved parts of a spec shared by both launch paths.
type launchParams struct {
	ami       string
	keyPair   string
	userData  string
	devices   []types.BlockDeviceMapping
	iface     types.InstanceNetworkInterfaceSpecification
	profile   *types.IamInstanceProfileSpecification
	clientTok string
	size      types.InstanceType

	// reservedIP is checked for availability before launch and associated
	// once the instance runs.
	reservedIP string
}

func (b *Binder) resolve(ctx context.Context, spec *machine.Spec, script *machine.Script) (*launchParams, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ami, err := spec.AMI(b.catalog)
	if err != nil {
		return nil, err
	}
	iface, err := spec.NetworkInterface(b.catalog)
	if err != nil {
		return nil, err
	}
	profile, err := spec.InstanceProfile(b.catalog)
	if err != nil {
		return nil, err
	}
	if script == nil {
		script = machine.NewScript(spec, config.EnvKey, string(b.runtime.Environment))
	}
	userData, err := script.RenderBase64()
	if err != nil {
		return nil, err
	}
	reservedIP, err := b.reserveIP(ctx, spec)
	if err != nil {
		return nil, err
	}

	return &launchParams{
		ami:       ami,
		keyPair:   spec.KeyPair(b.catalog),
		userData:  userData,
		devices:   spec.BlockDeviceMappings(),
		iface:     iface,
		profile:   profile,
		clientTok: b.newToken(),
		size:      types.InstanceType(spec.Size),

		reservedIP: reservedIP,
	}, nil
}

// reserveIP picks the reserved IP spec asks for, if any, so an unavailable
// address fails the launch before an instance exists.
func (b *Binder) reserveIP(ctx context.Context, spec *machine.Spec) (string, error) {
	switch {
	case spec.ElasticIP != "":
		if _, err := b.availableAllocation(ctx, spec.ElasticIP); err != nil {
			return "", err
		}
		return spec.ElasticIP, nil
	case spec.ElasticIPFromPool != "":
		return b.ReservedIPFromPool(ctx, spec.ElasticIPFromPool)
	default:
		return "", nil
	}
}

// launch creates fullName from spec and brings it to a ready, tagged,
// protected state.
func (b *Binder) launch(ctx context.Context, fullName string, spec *machine.Spec, script *machine.Script) (*machine.Machine, error) {
	params, err := b.resolve(ctx, spec, script)
	if err != nil {
		return nil, err
	}
	timestamp := strconv.FormatInt(b.now().Unix(), 10)

	var id string
	if spec.LaunchAsSpot {
		provisioning.Info(b.observer, component, fullName, "Requesting spot instance for %s", fullName)
		id, err = b.launchSpot(ctx, fullName, params)
		if err != nil {
			return nil, err
		}
		b.metrics.RecordLaunch(metrics.PathSpot)
	} else {
		provisioning.Info(b.observer, component, fullName, "Launching %s (%s)", fullName, spec.Size)
		id, err = b.launchOnDemand(ctx, params)
		if err != nil {
			return nil, err
		}
		b.metrics.RecordLaunch(metrics.PathOnDemand)
	}

	if err := b.waitRunning(ctx, id); err != nil {
		return nil, err
	}
	provisioning.Info(b.observer, component, fullName, "Instance %s is running", id)

	tags := labels.NewTagBuilder(fullName, string(b.runtime.Environment)).
		WithTimestamp(timestamp).
		WithService(spec.Service).
		WithPurpose(spec.Purpose).
		WithExpectedTTL(spec.ExpectedTTL).
		WithInstanceType(spec.Type).
		Merge(spec.Tags).
		Build()
	if err := b.ApplyTags(ctx, id, tags); err != nil {
		return nil, err
	}

	inst, err := b.describe(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := b.bind(ctx, *inst)
	if err != nil {
		return nil, err
	}

	if params.reservedIP != "" {
		if err := b.AssociateReservedIP(ctx, m, params.reservedIP); err != nil {
			return nil, err
		}
	}

	if spec.Protected() {
		if m.IsSpot() {
			provisioning.Warn(b.observer, component, fullName, "Spot instances cannot be protected from accidental termination.")
		} else if err := b.SetTerminationProtection(ctx, id, true); err != nil {
			return nil, err
		}
	}

	if err := b.ready.WaitReady(ctx, m); err != nil {
		return nil, fmt.Errorf("unable to confirm %s is ready: %w", fullName, err)
	}
	provisioning.Success(b.observer, component, fullName, "Launched %s (%s)", fullName, id)
	return m, nil
}

func (b *Binder) launchOnDemand(ctx context.Context, p *launchParams) (string, error) {
	out, err := b.ec2.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:             aws.String(p.ami),
		InstanceType:        p.size,
		KeyName:             aws.String(p.keyPair),
		MinCount:            aws.Int32(1),
		MaxCount:            aws.Int32(1),
		ClientToken:         aws.String(p.clientTok),
		UserData:            aws.String(p.userData),
		BlockDeviceMappings: p.devices,
		NetworkInterfaces:   []types.InstanceNetworkInterfaceSpecification{p.iface},
		IamInstanceProfile:  p.profile,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run instance: %w", err)
	}
	if len(out.Instances) != 1 {
		return "", fmt.Errorf("%w: expected one instance from launch, got %d", provisioning.ErrConsistency, len(out.Instances))
	}
	return aws.ToString(out.Instances[0].InstanceId), nil
}

func (b *Binder) launchSpot(ctx context.Context, fullName string, p *launchParams) (string, error) {
	out, err := b.ec2.RequestSpotInstances(ctx, &ec2.RequestSpotInstancesInput{
		ClientToken:   aws.String(p.clientTok),
		InstanceCount: aws.Int32(1),
		LaunchSpecification: &types.RequestSpotLaunchSpecification{
			ImageId:             aws.String(p.ami),
			InstanceType:        p.size,
			KeyName:             aws.String(p.keyPair),
			UserData:            aws.String(p.userData),
			BlockDeviceMappings: p.devices,
			NetworkInterfaces:   []types.InstanceNetworkInterfaceSpecification{p.iface},
			IamInstanceProfile:  p.profile,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to request spot instance: %w", err)
	}

	requestID, instanceID, err := parseSpotRequests(out.SpotInstanceRequests)
	if err != nil {
		return "", err
	}
	if instanceID != "" {
		return instanceID, nil
	}

	// Requests are never fulfilled immediately; give it one interval first.
	if err := sleep(ctx, b.timeouts.SpotPollInterval); err != nil {
		return "", err
	}

	err = retry.Poll(ctx, retry.Policy{
		Interval:    b.timeouts.SpotPollInterval,
		MaxAttempts: b.timeouts.SpotPollAttempts,
		Retryable:   func(err error) bool { return errors.Is(err, errSpotPending) },
		Notify: func(attempt int, _ error) {
			provisioning.Info(b.observer, component, fullName,
				"Spot request %s not fulfilled yet (attempt %d/%d)", requestID, attempt, b.timeouts.SpotPollAttempts)
		},
	}, func(int) error {
		b.metrics.RecordPollAttempt(metrics.LoopSpot)
		desc, err := b.ec2.DescribeSpotInstanceRequests(ctx, &ec2.DescribeSpotInstanceRequestsInput{
			SpotInstanceRequestIds: []string{requestID},
		})
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to describe spot request %s: %w", requestID, err))
		}
		_, id, err := parseSpotRequests(desc.SpotInstanceRequests)
		if err != nil {
			return retry.Fatal(err)
		}
		if id == "" {
			return errSpotPending
		}
		instanceID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return "", fmt.Errorf("unable to fulfill spot request for %s: %w", fullName, err)
		}
		return "", err
	}
	return instanceID, nil
}

// parseSpotRequests reads the single spot request in reqs. A fault on the
// request is a consistency error; an empty instance ID means pending.
func parseSpotRequests(reqs []types.SpotInstanceRequest) (requestID, instanceID string, err error) {
	if len(reqs) != 1 {
		return "", "", fmt.Errorf("%w: expected one spot request, got %d", provisioning.ErrConsistency, len(reqs))
	}
	req := reqs[0]
	if req.Fault != nil {
		return "", "", fmt.Errorf("%w: spot request error: %s", provisioning.ErrConsistency, aws.ToString(req.Fault.Message))
	}
	return aws.ToString(req.SpotInstanceRequestId), aws.ToString(req.InstanceId), nil
}

func (b *Binder) waitRunning(ctx context.Context, id string) error {
	waiter := ec2.NewInstanceRunningWaiter(b.ec2)
	err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, b.timeouts.InstanceRunning)
	if err != nil {
		return fmt.Errorf("instance %s did not reach running: %w", id, err)
	}
	return nil
}

func (b *Binder) waitTerminated(ctx context.Context, id string) error {
	waiter := ec2.NewInstanceTerminatedWaiter(b.ec2)
	err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, b.timeouts.InstanceTerminated)
	if err != nil {
		return fmt.Errorf("instance %s did not reach terminated: %w", id, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
