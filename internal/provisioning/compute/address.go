package compute

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/util/labels"
)

// AssociateReservedIP attaches the unassociated reserved IP ip to m.
func (b *Binder) AssociateReservedIP(ctx context.Context, m *machine.Machine, ip string) error {
	allocationID, err := b.availableAllocation(ctx, ip)
	if err != nil {
		return err
	}

	_, err = b.ec2.AssociateAddress(ctx, &ec2.AssociateAddressInput{
		AllocationId: aws.String(allocationID),
		InstanceId:   aws.String(m.InstanceID),
	})
	if err != nil {
		return fmt.Errorf("failed to associate %s with %s: %w", ip, m.InstanceID, err)
	}

	m.ReservedIP = ip
	provisioning.Info(b.observer, component, m.Name, "Associated reserved IP %s", ip)
	return nil
}

// availableAllocation returns the allocation ID of the reserved IP ip. An
// address that is not allocated or already associated is an error wrapping
// provisioning.ErrNotFound.
func (b *Binder) availableAllocation(ctx context.Context, ip string) (string, error) {
	out, err := b.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return "", fmt.Errorf("failed to describe addresses: %w", err)
	}
	for _, addr := range out.Addresses {
		if !isAttached(addr) && aws.ToString(addr.PublicIp) == ip {
			return aws.ToString(addr.AllocationId), nil
		}
	}
	return "", fmt.Errorf("%w: reserved IP %s is not available, has it been allocated or is it already associated?",
		provisioning.ErrNotFound, ip)
}

// ReservedIPFromPool returns the first unassociated address tagged with
// pool. An exhausted pool is an error wrapping provisioning.ErrNotFound.
func (b *Binder) ReservedIPFromPool(ctx context.Context, pool string) (string, error) {
	out, err := b.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		Filters: []types.Filter{labels.Filter(labels.KeyEIPPool, pool)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe addresses in pool %q: %w", pool, err)
	}
	for _, addr := range out.Addresses {
		if !isAttached(addr) {
			return aws.ToString(addr.PublicIp), nil
		}
	}
	return "", fmt.Errorf("%w: no available IPs in reserved IP pool (%s) %q", provisioning.ErrNotFound, labels.KeyEIPPool, pool)
}

// attachedReservedIP returns the reserved IP attached to instanceID, or ""
// when there is none.
func (b *Binder) attachedReservedIP(ctx context.Context, instanceID string) (string, error) {
	out, err := b.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		Filters: []types.Filter{{Name: aws.String("instance-id"), Values: []string{instanceID}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe addresses for %s: %w", instanceID, err)
	}
	for _, addr := range out.Addresses {
		if aws.ToString(addr.InstanceId) == instanceID {
			return aws.ToString(addr.PublicIp), nil
		}
	}
	return "", nil
}

func isAttached(addr types.Address) bool {
	return addr.InstanceId != nil || addr.AssociationId != nil
}
