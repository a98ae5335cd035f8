package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/metrics"
	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/platform/s3"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/util/retry"
)

const (
	component = "remote"

	// DefaultDocument is the SSM document commands are sent with.
	DefaultDocument = "AWS-RunShellScript"

	// MinTimeout is the shortest accepted execution timeout.
	MinTimeout = 30 * time.Second

	// statusSpacing sizes the status attempt budget: a command gets
	// timeout/statusSpacing status checks.
	statusSpacing = 15 * time.Second

	// inlineOutputLimit is the length at which SSM truncates inline output.
	inlineOutputLimit = 24000
)

// errInProgress marks a status check that should be repeated.
var errInProgress = errors.New("command in progress")

// terminalStatuses are the lowercased status details that end a command
// unsuccessfully.
var terminalStatuses = map[string]bool{
	"delivery timed out":  true,
	"execution timed out": true,
	"failed":              true,
	"canceled":            true,
	"cancelled":           true,
	"undeliverable":       true,
	"terminated":          true,
	"invalid platform":    true,
	"access denied":       true,
}

// OutputFetcher downloads the complete output of a command from the
// configured output bucket.
type OutputFetcher interface {
	CommandOutput(ctx context.Context, bucket, prefix, commandID, instanceID string, stream s3.Stream) (string, error)
}

// Executor sends command batches to machines and waits for their result.
type Executor struct {
	ssm      platformaws.SSMAPI
	observer provisioning.Observer
	timeouts *config.Timeouts
	metrics  *metrics.Recorder

	output OutputFetcher
	bucket string
	prefix string
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver sets the narrative sink.
func WithObserver(o provisioning.Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithTimeouts overrides the polling timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(e *Executor) { e.timeouts = t }
}

// WithMetrics records command outcomes and poll attempts.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Executor) { e.metrics = r }
}

// WithOutputBucket sends command output to bucket under prefix and reads
// it back through fetcher when the inline copy was truncated.
func WithOutputBucket(fetcher OutputFetcher, bucket, prefix string) Option {
	return func(e *Executor) {
		e.output = fetcher
		e.bucket = bucket
		e.prefix = prefix
	}
}

// NewExecutor creates an Executor over the SSM API.
func NewExecutor(api platformaws.SSMAPI, opts ...Option) *Executor {
	e := &Executor{
		ssm:      api,
		observer: provisioning.NopObserver{},
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	timeout      time.Duration
	document     string
	echoCommands bool
	echoOutput   bool
}

// WithTimeout sets the execution timeout, at least MinTimeout.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithDocument sends the batch with a different SSM document.
func WithDocument(name string) RunOption {
	return func(o *runOptions) { o.document = name }
}

// Quiet suppresses echoing commands and output to the observer.
func Quiet() RunOption {
	return func(o *runOptions) {
		o.echoCommands = false
		o.echoOutput = false
	}
}

// EchoCommands controls whether commands are echoed before sending.
func EchoCommands(echo bool) RunOption {
	return func(o *runOptions) { o.echoCommands = echo }
}

// EchoOutput controls whether returned lines are echoed.
func EchoOutput(echo bool) RunOption {
	return func(o *runOptions) { o.echoOutput = echo }
}

// Run sends commands to instanceID as one batch and returns the output
// lines once the invocation succeeds.
//
// Status checks that fail, or that report a non-terminal status, are
// repeated every CommandPollInterval for timeout/15s attempts. A terminal
// failure status returns an error wrapping provisioning.ErrCommandFailed
// at once; running out of attempts returns an error wrapping
// retry.ErrExhausted.
func (e *Executor) Run(ctx context.Context, instanceID string, commands []string, opts ...RunOption) ([]string, error) {
	o := runOptions{
		timeout:      e.timeouts.CommandTimeout,
		document:     DefaultDocument,
		echoCommands: true,
		echoOutput:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.timeout < MinTimeout {
		return nil, fmt.Errorf("%w: 'execution_timeout' must be set to at least %d seconds, got %s",
			provisioning.ErrConfiguration, int(MinTimeout.Seconds()), o.timeout)
	}

	if o.echoCommands {
		for _, cmd := range commands {
			provisioning.Info(e.observer, component, instanceID, "#> %s", cmd)
		}
	}

	commandID, err := e.send(ctx, instanceID, commands, o)
	if err != nil {
		return nil, err
	}

	if err := sleep(ctx, e.timeouts.CommandSettle); err != nil {
		return nil, err
	}

	lines, err := e.waitForResult(ctx, instanceID, commandID, o.timeout)
	if err != nil {
		return nil, err
	}

	if o.echoOutput {
		for _, line := range lines {
			provisioning.Success(e.observer, component, instanceID, "%s", strings.TrimSpace(line))
		}
	}
	return lines, nil
}

// RunAndVerify runs commands and reports whether any output line contains
// needle.
func (e *Executor) RunAndVerify(ctx context.Context, instanceID string, commands []string, needle string, opts ...RunOption) (bool, error) {
	lines, err := e.Run(ctx, instanceID, commands, opts...)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if strings.Contains(line, needle) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Executor) send(ctx context.Context, instanceID string, commands []string, o runOptions) (string, error) {
	input := &ssm.SendCommandInput{
		DocumentName: aws.String(o.document),
		InstanceIds:  []string{instanceID},
		Parameters: map[string][]string{
			"commands":         commands,
			"executionTimeout": {strconv.Itoa(int(o.timeout.Seconds()))},
		},
	}
	if e.bucket != "" {
		input.OutputS3BucketName = aws.String(e.bucket)
		if e.prefix != "" {
			input.OutputS3KeyPrefix = aws.String(e.prefix)
		}
	}

	out, err := e.ssm.SendCommand(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send command to %s: %w", instanceID, err)
	}
	if out.Command == nil || aws.ToString(out.Command.CommandId) == "" {
		return "", fmt.Errorf("%w: send-command response for %s has no command id", provisioning.ErrConsistency, instanceID)
	}
	return aws.ToString(out.Command.CommandId), nil
}

func (e *Executor) waitForResult(ctx context.Context, instanceID, commandID string, timeout time.Duration) ([]string, error) {
	attempts := int(timeout / statusSpacing)
	if attempts < 1 {
		attempts = 1
	}

	var lines []string
	err := retry.Poll(ctx, retry.Policy{
		Interval:    e.timeouts.CommandPollInterval,
		MaxAttempts: attempts,
		Retryable:   func(err error) bool { return errors.Is(err, errInProgress) },
	}, func(int) error {
		e.metrics.RecordPollAttempt(metrics.LoopCommand)
		var err error
		lines, err = e.checkStatus(ctx, instanceID, commandID)
		return err
	})

	switch {
	case err == nil:
		e.metrics.RecordCommand("success")
		return lines, nil
	case errors.Is(err, retry.ErrExhausted):
		e.metrics.RecordCommand("exhausted")
		return nil, fmt.Errorf("command %s on instance %s did not finish: %w", commandID, instanceID, err)
	default:
		return nil, err
	}
}

// checkStatus performs one status check. It returns errInProgress for
// anything short of success or a terminal failure.
func (e *Executor) checkStatus(ctx context.Context, instanceID, commandID string) ([]string, error) {
	out, err := e.ssm.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
		CommandId:  aws.String(commandID),
		InstanceId: aws.String(instanceID),
	})
	if err != nil {
		if !platformaws.IsInvocationPending(err) {
			provisioning.Warn(e.observer, component, instanceID, "status check for command %s failed: %v", commandID, err)
		}
		return nil, fmt.Errorf("%w: %w", errInProgress, err)
	}

	if out.StatusDetails == nil {
		provisioning.Warn(e.observer, component, instanceID, "Status not available for command %s", commandID)
		return nil, fmt.Errorf("%w: status not available for command %s", errInProgress, commandID)
	}

	status := aws.ToString(out.StatusDetails)
	switch lower := strings.ToLower(status); {
	case lower == "success":
		provisioning.Success(e.observer, component, instanceID, "Command %s: %s", commandID, status)
		return e.collectOutput(ctx, instanceID, commandID, out), nil
	case terminalStatuses[lower]:
		e.metrics.RecordCommand(lower)
		return nil, fmt.Errorf("%w: error processing command %s on instance %s: %s",
			provisioning.ErrCommandFailed, commandID, instanceID, status)
	default:
		provisioning.Info(e.observer, component, instanceID, "Command %s: %s", commandID, status)
		return nil, fmt.Errorf("%w: %s", errInProgress, status)
	}
}

func (e *Executor) collectOutput(ctx context.Context, instanceID, commandID string, out *ssm.GetCommandInvocationOutput) []string {
	stdout := e.fullOutput(ctx, instanceID, commandID, s3.Stdout, aws.ToString(out.StandardOutputContent))
	stderr := e.fullOutput(ctx, instanceID, commandID, s3.Stderr, aws.ToString(out.StandardErrorContent))

	output := stdout
	if strings.TrimSpace(stderr) != "" {
		if output != "" && !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		output += stderr
	}
	if strings.TrimSpace(output) == "" {
		return nil
	}
	return splitLines(output)
}

// fullOutput replaces inline output that reached SSM's truncation limit
// with the complete copy from the output bucket, when one is configured.
func (e *Executor) fullOutput(ctx context.Context, instanceID, commandID string, stream s3.Stream, inline string) string {
	if e.output == nil || e.bucket == "" || len(inline) < inlineOutputLimit {
		return inline
	}
	full, err := e.output.CommandOutput(ctx, e.bucket, e.prefix, commandID, instanceID, stream)
	if err != nil {
		provisioning.Warn(e.observer, component, instanceID, "using truncated %s for command %s: %v", stream, commandID, err)
		return inline
	}
	return full
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
