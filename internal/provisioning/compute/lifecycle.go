package compute

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/provisioning"
)

// Terminate destroys the machine called name. A missing machine is a
// no-op. A machine launched with a key pair other than keyPair (the
// catalog default when empty) is refused unless force is set.
func (b *Binder) Terminate(ctx context.Context, name, keyPair string, force bool) error {
	fullName := b.FullName(name)
	inst, err := b.lifecycleTarget(ctx, fullName, keyPair, force)
	if err != nil || inst == nil {
		return err
	}
	m := machine.FromInstance(*inst, b.runtime)

	if !m.IsSpot() {
		if err := b.SetTerminationProtection(ctx, m.InstanceID, false); err != nil {
			return provisioning.Fail(b.observer, component, fullName, err)
		}
	}

	provisioning.Info(b.observer, component, fullName, "Terminating %s in the %s environment", fullName, b.runtime.Environment)
	if _, err := b.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{m.InstanceID}}); err != nil {
		return provisioning.Fail(b.observer, component, fullName, fmt.Errorf("failed to terminate %s: %w", m.InstanceID, err))
	}
	if err := b.waitTerminated(ctx, m.InstanceID); err != nil {
		return provisioning.Fail(b.observer, component, fullName, err)
	}

	b.metrics.RecordTermination()
	provisioning.Success(b.observer, component, fullName, "Termination of %s complete", fullName)
	return nil
}

// Stop stops the machine called name without waiting. A missing machine
// is a no-op.
func (b *Binder) Stop(ctx context.Context, name, keyPair string) error {
	fullName := b.FullName(name)
	inst, err := b.lifecycleTarget(ctx, fullName, keyPair, false)
	if err != nil || inst == nil {
		return err
	}
	id := aws.ToString(inst.InstanceId)

	provisioning.Info(b.observer, component, fullName, "Stopping %s", fullName)
	if _, err := b.ec2.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{id}}); err != nil {
		return provisioning.Fail(b.observer, component, fullName, fmt.Errorf("failed to stop %s: %w", id, err))
	}
	return nil
}

// Start starts the machine called name without waiting. A missing machine
// is a no-op.
func (b *Binder) Start(ctx context.Context, name, keyPair string) error {
	fullName := b.FullName(name)
	inst, err := b.lifecycleTarget(ctx, fullName, keyPair, false)
	if err != nil || inst == nil {
		return err
	}
	id := aws.ToString(inst.InstanceId)

	provisioning.Info(b.observer, component, fullName, "Starting %s", fullName)
	if _, err := b.ec2.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}}); err != nil {
		return provisioning.Fail(b.observer, component, fullName, fmt.Errorf("failed to start %s: %w", id, err))
	}
	return nil
}

// lifecycleTarget finds fullName and runs the key pair safety check.
// It returns nil without error when there is nothing to act on.
func (b *Binder) lifecycleTarget(ctx context.Context, fullName, keyPair string, force bool) (*types.Instance, error) {
	inst, err := b.find(ctx, fullName)
	if err != nil {
		return nil, provisioning.Fail(b.observer, component, fullName, err)
	}
	if inst == nil {
		provisioning.Warn(b.observer, component, fullName, "%s not found, nothing to do", fullName)
		return nil, nil
	}

	if keyPair == "" {
		keyPair = b.catalog.DefaultKeyPair
	}
	actual := aws.ToString(inst.KeyName)
	if actual != "" && actual != keyPair {
		if !force {
			return nil, provisioning.Fail(b.observer, component, fullName,
				fmt.Errorf("%w: %s is not associated with the %s key pair", provisioning.ErrSafetyCheck, fullName, keyPair))
		}
		provisioning.Warn(b.observer, component, fullName, "%s uses key pair %s, continuing because of force", fullName, actual)
	}
	return inst, nil
}

// SetTerminationProtection turns API termination protection on or off.
func (b *Binder) SetTerminationProtection(ctx context.Context, id string, protected bool) error {
	_, err := b.ec2.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId:            aws.String(id),
		DisableApiTermination: &types.AttributeBooleanValue{Value: aws.Bool(protected)},
	})
	if err != nil {
		return fmt.Errorf("failed to set termination protection on %s: %w", id, err)
	}
	return nil
}

// IsTerminationProtected reports whether API termination is disabled for id.
func (b *Binder) IsTerminationProtected(ctx context.Context, id string) (bool, error) {
	out, err := b.ec2.DescribeInstanceAttribute(ctx, &ec2.DescribeInstanceAttributeInput{
		InstanceId: aws.String(id),
		Attribute:  types.InstanceAttributeNameDisableApiTermination,
	})
	if err != nil {
		return false, fmt.Errorf("failed to read termination protection of %s: %w", id, err)
	}
	if out.DisableApiTermination == nil {
		return false, nil
	}
	return aws.ToBool(out.DisableApiTermination.Value), nil
}

// ToggleTerminationProtection flips termination protection on m. Spot
// instances cannot be protected, so the toggle is a no-op for them.
func (b *Binder) ToggleTerminationProtection(ctx context.Context, m *machine.Machine) (bool, error) {
	if m.IsSpot() {
		provisioning.Warn(b.observer, component, m.Name, "Spot instances cannot be protected from accidental termination.")
		return false, nil
	}
	current, err := b.IsTerminationProtected(ctx, m.InstanceID)
	if err != nil {
		return false, err
	}
	if err := b.SetTerminationProtection(ctx, m.InstanceID, !current); err != nil {
		return current, err
	}
	provisioning.Info(b.observer, component, m.Name, "Termination protection is now %t", !current)
	return !current, nil
}
