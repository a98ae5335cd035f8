package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/metrics"
	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/util/labels"
	"github.com/gwerks/gwerks/internal/util/naming"
)

const component = "compute"

// ReadinessWaiter blocks until a machine is ready for commands.
type ReadinessWaiter interface {
	WaitReady(ctx context.Context, m *machine.Machine) error
}

// Binder finds, launches and manages machines in one runtime.
type Binder struct {
	ec2      platformaws.EC2API
	ready    ReadinessWaiter
	catalog  *config.Catalog
	runtime  config.Runtime
	observer provisioning.Observer
	timeouts *config.Timeouts
	metrics  *metrics.Recorder
	now      func() time.Time
	newToken func() string
}

// Option configures a Binder.
type Option func(*Binder)

// WithObserver sets the narrative sink.
func WithObserver(o provisioning.Observer) Option {
	return func(b *Binder) { b.observer = o }
}

// WithTimeouts overrides the polling timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(b *Binder) { b.timeouts = t }
}

// WithMetrics records launches, binds and terminations.
func WithMetrics(r *metrics.Recorder) Option {
	return func(b *Binder) { b.metrics = r }
}

// WithClock overrides the clock used for the Timestamp tag.
func WithClock(now func() time.Time) Option {
	return func(b *Binder) { b.now = now }
}

// WithTokenSource overrides how launch idempotency tokens are generated.
func WithTokenSource(newToken func() string) Option {
	return func(b *Binder) { b.newToken = newToken }
}

// NewBinder creates a Binder. ready confirms machines after bind or
// launch; cat resolves machine specs.
func NewBinder(api platformaws.EC2API, ready ReadinessWaiter, cat *config.Catalog, rt config.Runtime, opts ...Option) *Binder {
	b := &Binder{
		ec2:      api,
		ready:    ready,
		catalog:  cat,
		runtime:  rt,
		observer: provisioning.NopObserver{},
		timeouts: config.LoadTimeouts(),
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FullName returns the normalized machine name for the binder's environment.
func (b *Binder) FullName(name string) string {
	return naming.Machine(name, b.runtime.Environment)
}

// BindOrLaunch binds to the live machine called name, or launches it from
// spec when none exists. script may be nil, in which case the standard
// bootstrap for spec is used. The returned machine has passed readiness.
func (b *Binder) BindOrLaunch(ctx context.Context, name string, spec *machine.Spec, script *machine.Script) (*machine.Machine, error) {
	fullName := b.FullName(name)

	inst, err := b.find(ctx, fullName)
	if err != nil {
		return nil, provisioning.Fail(b.observer, component, fullName, err)
	}

	if inst != nil {
		m, err := b.bind(ctx, *inst)
		if err != nil {
			return nil, provisioning.Fail(b.observer, component, fullName, err)
		}
		provisioning.Info(b.observer, component, fullName, "Binding to existing %s (%s)", fullName, m.InstanceID)
		b.metrics.RecordBind()

		if err := b.ready.WaitReady(ctx, m); err != nil {
			return nil, provisioning.Fail(b.observer, component, fullName,
				fmt.Errorf("%s never entered a ready state, unable to continue: %w", fullName, err))
		}
		return m, nil
	}

	if spec == nil {
		return nil, provisioning.Fail(b.observer, component, fullName,
			fmt.Errorf("%w: %s not in AWS and a spec was not provided, unable to continue", provisioning.ErrNotFound, fullName))
	}

	m, err := b.launch(ctx, fullName, spec, script)
	if err != nil {
		return nil, provisioning.Fail(b.observer, component, fullName, err)
	}
	return m, nil
}

// Find returns the live machine called name without waiting for readiness.
// A missing machine is an error wrapping provisioning.ErrNotFound.
func (b *Binder) Find(ctx context.Context, name string) (*machine.Machine, error) {
	fullName := b.FullName(name)
	inst, err := b.find(ctx, fullName)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: machine %s in %s", provisioning.ErrNotFound, fullName, b.runtime.Environment)
	}
	return b.bind(ctx, *inst)
}

// Describe renders the live machine called name as an info table.
func (b *Binder) Describe(ctx context.Context, name string) (string, error) {
	m, err := b.Find(ctx, name)
	if err != nil {
		return "", err
	}
	protected, err := b.IsTerminationProtected(ctx, m.InstanceID)
	if err != nil {
		return "", err
	}
	return m.Describe(protected), nil
}

// find returns the single live instance tagged fullName in the current
// environment, or nil when there is none.
func (b *Binder) find(ctx context.Context, fullName string) (*types.Instance, error) {
	names := naming.LookupNames(fullName, b.runtime.Environment)
	envs := naming.LookupEnvironments(b.runtime.Environment)

	paginator := ec2.NewDescribeInstancesPaginator(b.ec2, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			labels.Filter(labels.KeyName, names...),
			labels.Filter(labels.KeyEnvironment, envs...),
		},
	})

	var found *types.Instance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances for %s: %w", fullName, err)
		}
		for _, r := range page.Reservations {
			for i := range r.Instances {
				inst := r.Instances[i]
				if !isLive(inst) {
					continue
				}
				// there can be only one
				if found != nil {
					return nil, fmt.Errorf("%w: found more than one machine for %v + %v",
						provisioning.ErrConsistency, names, envs)
				}
				found = &inst
			}
		}
	}
	return found, nil
}

// describe returns the instance with id.
func (b *Binder) describe(ctx context.Context, id string) (*types.Instance, error) {
	out, err := b.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance %s: %w", id, err)
	}
	for _, r := range out.Reservations {
		for i := range r.Instances {
			if aws.ToString(r.Instances[i].InstanceId) == id {
				return &r.Instances[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: instance %s", provisioning.ErrNotFound, id)
}

// bind builds the machine view of inst, including any reserved IP
// attached to it.
func (b *Binder) bind(ctx context.Context, inst types.Instance) (*machine.Machine, error) {
	m := machine.FromInstance(inst, b.runtime)

	ip, err := b.attachedReservedIP(ctx, m.InstanceID)
	if err != nil {
		return nil, err
	}
	m.ReservedIP = ip
	return m, nil
}

func isLive(inst types.Instance) bool {
	if inst.State == nil {
		return true
	}
	switch inst.State.Name {
	case types.InstanceStateNameTerminated, types.InstanceStateNameShuttingDown:
		return false
	default:
		return true
	}
}
