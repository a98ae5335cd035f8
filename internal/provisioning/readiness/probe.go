package readiness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/metrics"
	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/provisioning/remote"
	"github.com/gwerks/gwerks/internal/util/retry"
)

const component = "readiness"

// State is how far a machine has come since launch.
type State int

const (
	// StateUnknown means the agent is not connected.
	StateUnknown State = iota
	// StateOnline means the agent is connected but bootstrap has not finished.
	StateOnline
	// StateBootstrapped means the completion marker is present.
	StateBootstrapped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateBootstrapped:
		return "bootstrapped"
	default:
		return "unknown"
	}
}

// errNotReady marks a check that should be repeated.
var errNotReady = errors.New("not ready")

// Runner runs remote commands.
type Runner interface {
	Run(ctx context.Context, instanceID string, commands []string, opts ...remote.RunOption) ([]string, error)
}

// Prober checks and waits for machine readiness.
type Prober struct {
	ssm      platformaws.SSMAPI
	runner   Runner
	observer provisioning.Observer
	timeouts *config.Timeouts
	metrics  *metrics.Recorder
}

// Option configures a Prober.
type Option func(*Prober)

// WithObserver sets the narrative sink.
func WithObserver(o provisioning.Observer) Option {
	return func(p *Prober) { p.observer = o }
}

// WithTimeouts overrides the polling timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Prober) { p.timeouts = t }
}

// WithMetrics records poll attempts and wait durations.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Prober) { p.metrics = r }
}

// NewProber creates a Prober that checks connectivity through api and
// runs the marker check through runner.
func NewProber(api platformaws.SSMAPI, runner Runner, opts ...Option) *Prober {
	p := &Prober{
		ssm:      api,
		runner:   runner,
		observer: provisioning.NopObserver{},
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe reports whether the machine's agent is connected.
func (p *Prober) Probe(ctx context.Context, instanceID string) (bool, error) {
	out, err := p.ssm.GetConnectionStatus(ctx, &ssm.GetConnectionStatusInput{
		Target: aws.String(instanceID),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get connection status for %s: %w", instanceID, err)
	}

	connected := out.Status == ssmtypes.ConnectionStatusConnected
	if connected {
		provisioning.Success(p.observer, component, instanceID, "SSM status for %s is %s", instanceID, out.Status)
	} else {
		provisioning.Warn(p.observer, component, instanceID, "SSM status for %s is %s", instanceID, out.Status)
	}
	return connected, nil
}

// Check runs one readiness check: probe, then list the filesystem and
// look for the bootstrap marker.
func (p *Prober) Check(ctx context.Context, m *machine.Machine) (State, error) {
	online, err := p.Probe(ctx, m.InstanceID)
	if err != nil {
		return StateUnknown, err
	}
	if !online {
		return StateUnknown, nil
	}

	cmd, err := m.Kind.ReadinessCommand()
	if err != nil {
		return StateOnline, err
	}
	lines, err := p.runner.Run(ctx, m.InstanceID, []string{cmd}, remote.Quiet())
	if err != nil {
		return StateOnline, err
	}
	for _, line := range lines {
		if strings.Contains(line, machine.MarkerFile) {
			return StateBootstrapped, nil
		}
	}
	return StateOnline, nil
}

// WaitReady repeats Check every ReadyPollInterval until the machine is
// bootstrapped. Only "not yet" results are retried; any error from a check
// aborts the wait. Running out of attempts returns an error wrapping
// provisioning.ErrNotReady and retry.ErrExhausted.
func (p *Prober) WaitReady(ctx context.Context, m *machine.Machine) error {
	start := time.Now()

	err := retry.Poll(ctx, retry.Policy{
		Interval:    p.timeouts.ReadyPollInterval,
		MaxAttempts: p.timeouts.ReadyPollAttempts,
		Retryable:   func(err error) bool { return errors.Is(err, errNotReady) },
	}, func(int) error {
		p.metrics.RecordPollAttempt(metrics.LoopReadiness)
		state, err := p.Check(ctx, m)
		if err != nil {
			return err
		}
		switch state {
		case StateBootstrapped:
			return nil
		case StateOnline:
			provisioning.Warn(p.observer, component, m.InstanceID, "%s is not bootstrapped", m.InstanceID)
			return fmt.Errorf("%w: bootstrap complete file not found on %s", errNotReady, m.InstanceID)
		default:
			return fmt.Errorf("%w: %s is not online or ready for commands", errNotReady, m.InstanceID)
		}
	})
	if err != nil {
		// Only this loop's own exhaustion carries errNotReady; a check that
		// failed after exhausting its command budget aborts as-is.
		if errors.Is(err, retry.ErrExhausted) && errors.Is(err, errNotReady) {
			err = fmt.Errorf("%w: %s never entered a ready state: %w", provisioning.ErrNotReady, m.Name, err)
		}
		return err
	}

	p.metrics.ObserveReadinessWait(time.Since(start))
	provisioning.Success(p.observer, component, m.InstanceID, "%s is ready", m.InstanceID)
	return nil
}
