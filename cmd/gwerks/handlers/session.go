package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/machine"
	"github.com/gwerks/gwerks/internal/metrics"
	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/platform/s3"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/provisioning/compute"
	"github.com/gwerks/gwerks/internal/provisioning/readiness"
	"github.com/gwerks/gwerks/internal/provisioning/remote"
)

// Log formats accepted by --log-format.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Globals are the flags shared by every command.
type Globals struct {
	Environment string
	Region      string
	Profile     string
	CatalogPath string
	LogFormat   string
	MetricsFile string

	Out io.Writer
	Err io.Writer
}

func (g Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g Globals) errOut() io.Writer {
	if g.Err == nil {
		return os.Stderr
	}
	return g.Err
}

// Binder is the machine surface the commands drive.
type Binder interface {
	BindOrLaunch(ctx context.Context, name string, spec *machine.Spec, script *machine.Script) (*machine.Machine, error)
	Find(ctx context.Context, name string) (*machine.Machine, error)
	Describe(ctx context.Context, name string) (string, error)
	Start(ctx context.Context, name, keyPair string) error
	Stop(ctx context.Context, name, keyPair string) error
	Terminate(ctx context.Context, name, keyPair string, force bool) error
	ToggleTerminationProtection(ctx context.Context, m *machine.Machine) (bool, error)
}

// Runner executes commands on a bound machine.
type Runner interface {
	Run(ctx context.Context, instanceID string, commands []string, opts ...remote.RunOption) ([]string, error)
	RunAndVerify(ctx context.Context, instanceID string, commands []string, needle string, opts ...remote.RunOption) (bool, error)
}

// Secrets reads Secrets Manager values.
type Secrets interface {
	GetSecret(ctx context.Context, name string) ([]byte, error)
	SecretMap(ctx context.Context, name string) (map[string]any, error)
}

// Session is everything one command invocation needs.
type Session struct {
	Runtime  config.Runtime
	Catalog  *config.Catalog
	Observer provisioning.Observer
	Metrics  *metrics.Recorder
	Binder   Binder
	Runner   Runner
	Secrets  Secrets

	metricsFile string
	closers     []func() error
}

// Close flushes logs and writes the metrics textfile when one was asked for.
func (s *Session) Close() error {
	var errs []error
	if s.metricsFile != "" {
		if err := s.Metrics.WriteTextfile(s.metricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory function variables - can be replaced in tests.
var (
	newSession  = buildSession
	loadCatalog = config.LoadCatalog
	newClients  = func(ctx context.Context, rt config.Runtime) (*platformaws.Clients, error) {
		return platformaws.NewClients(ctx, rt, credentialOptions()...)
	}
	newZapLogger = zap.NewProduction
)

// Static credential variables, usually supplied by the .env file.
const (
	accessKeyEnv    = "AWS_ACCESS_KEY_ID"
	secretKeyEnv    = "AWS_SECRET_ACCESS_KEY"
	sessionTokenEnv = "AWS_SESSION_TOKEN"
)

// credentialOptions pins static credentials when both key variables are
// set, so they take precedence over the shared-config profile.
func credentialOptions() []platformaws.ClientOption {
	access, secret := os.Getenv(accessKeyEnv), os.Getenv(secretKeyEnv)
	if access == "" || secret == "" {
		return nil
	}
	return []platformaws.ClientOption{
		platformaws.WithStaticCredentials(access, secret, os.Getenv(sessionTokenEnv)),
	}
}

// ResolveRuntime starts from the process environment and applies any
// non-empty flag overrides.
func ResolveRuntime(g Globals) (config.Runtime, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return config.Runtime{}, err
	}
	if g.Environment != "" {
		rt, err = rt.WithEnvironment(config.Environment(g.Environment))
		if err != nil {
			return config.Runtime{}, err
		}
	}
	if g.Region != "" {
		region, err := config.ParseRegion(g.Region)
		if err != nil {
			return config.Runtime{}, err
		}
		rt.Region = region
	}
	if g.Profile != "" {
		rt.Profile = g.Profile
	}
	return rt, rt.Validate()
}

// newObserver builds the narrative sink for format. The returned closer
// flushes buffered log entries.
func newObserver(format string, w io.Writer) (provisioning.Observer, func() error, error) {
	switch format {
	case "", LogFormatConsole:
		return provisioning.NewConsoleObserver(w), func() error { return nil }, nil
	case LogFormatJSON:
		logger, err := newZapLogger()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logger: %w", err)
		}
		// Sync on stderr fails with EINVAL on some platforms; it is not actionable.
		closer := func() error { _ = logger.Sync(); return nil }
		return provisioning.NewLogrObserver(zapr.NewLogger(logger)), closer, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown log format %q (must be %s or %s)",
			provisioning.ErrConfiguration, format, LogFormatConsole, LogFormatJSON)
	}
}

func buildSession(ctx context.Context, g Globals) (*Session, error) {
	rt, err := ResolveRuntime(g)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(g.CatalogPath)
	if err != nil {
		return nil, err
	}
	obs, closer, err := newObserver(g.LogFormat, g.errOut())
	if err != nil {
		return nil, err
	}
	clients, err := newClients(ctx, rt)
	if err != nil {
		return nil, err
	}

	timeouts := config.LoadTimeouts()
	recorder := metrics.NewRecorder()

	execOpts := []remote.Option{
		remote.WithObserver(obs),
		remote.WithTimeouts(timeouts),
		remote.WithMetrics(recorder),
	}
	if cat.OutputBucket != "" {
		execOpts = append(execOpts, remote.WithOutputBucket(s3.NewClient(clients.S3), cat.OutputBucket, cat.OutputPrefix))
	}
	executor := remote.NewExecutor(clients.SSM, execOpts...)

	prober := readiness.NewProber(clients.SSM, executor,
		readiness.WithObserver(obs),
		readiness.WithTimeouts(timeouts),
		readiness.WithMetrics(recorder),
	)

	binder := compute.NewBinder(clients.EC2, prober, cat, rt,
		compute.WithObserver(obs),
		compute.WithTimeouts(timeouts),
		compute.WithMetrics(recorder),
		compute.WithClock(time.Now),
	)

	return &Session{
		Runtime:     rt,
		Catalog:     cat,
		Observer:    obs,
		Metrics:     recorder,
		Binder:      binder,
		Runner:      executor,
		Secrets:     platformaws.NewSecretStore(clients.Secrets),
		metricsFile: g.MetricsFile,
		closers:     []func() error{closer},
	}, nil
}

// withSession opens a session, runs fn and closes the session, keeping
// fn's error when both fail.
func withSession(ctx context.Context, g Globals, fn func(*Session) error) (err error) {
	s, err := newSession(ctx, g)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
