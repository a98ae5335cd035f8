package remote

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/metrics"
	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/platform/s3"
	"github.com/gwerks/gwerks/internal/provisioning"
	gwtesting "github.com/gwerks/gwerks/internal/testing"
	"github.com/gwerks/gwerks/internal/util/retry"
)

func sendOK(commandID string) func(context.Context, *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
	return func(context.Context, *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
		return &ssm.SendCommandOutput{Command: &ssmtypes.Command{CommandId: aws.String(commandID)}}, nil
	}
}

func invocation(status, stdout, stderr string) *ssm.GetCommandInvocationOutput {
	return &ssm.GetCommandInvocationOutput{
		StatusDetails:         aws.String(status),
		StandardOutputContent: aws.String(stdout),
		StandardErrorContent:  aws.String(stderr),
	}
}

func newTestExecutor(api platformaws.SSMAPI, opts ...Option) (*Executor, *gwtesting.RecordingObserver) {
	obs := gwtesting.NewRecordingObserver()
	opts = append([]Option{WithObserver(obs), WithTimeouts(config.TestTimeouts())}, opts...)
	return NewExecutor(api, opts...), obs
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	var sent *ssm.SendCommandInput
	api := &platformaws.MockSSM{
		SendCommandFunc: func(_ context.Context, in *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
			sent = in
			return &ssm.SendCommandOutput{Command: &ssmtypes.Command{CommandId: aws.String("cmd-1")}}, nil
		},
		GetCommandInvocationFunc: func(_ context.Context, in *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			assert.Equal(t, "cmd-1", aws.ToString(in.CommandId))
			assert.Equal(t, "i-123", aws.ToString(in.InstanceId))
			return invocation("Success", "a\nb\n", ""), nil
		},
	}
	exec, obs := newTestExecutor(api)

	lines, err := exec.Run(context.Background(), "i-123", []string{"echo a", "echo b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)

	require.NotNil(t, sent)
	assert.Equal(t, DefaultDocument, aws.ToString(sent.DocumentName))
	assert.Equal(t, []string{"i-123"}, sent.InstanceIds)
	assert.Equal(t, []string{"echo a", "echo b"}, sent.Parameters["commands"])
	assert.Equal(t, []string{"3600"}, sent.Parameters["executionTimeout"])
	assert.Nil(t, sent.OutputS3BucketName)

	assert.True(t, obs.Contains("#> echo a"))
	assert.True(t, obs.Contains("Command cmd-1: Success"))
}

func TestRun_StderrAppended(t *testing.T) {
	t.Parallel()

	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			return invocation("Success", "out", "warn: x\n"), nil
		},
	}
	exec, _ := newTestExecutor(api)

	lines, err := exec.Run(context.Background(), "i-123", []string{"x"}, Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"out", "warn: x"}, lines)
}

func TestRun_BlankStderrIgnored(t *testing.T) {
	t.Parallel()

	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			return invocation("Success", "", "  \n"), nil
		},
	}
	exec, _ := newTestExecutor(api)

	lines, err := exec.Run(context.Background(), "i-123", []string{"true"}, Quiet())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRun_TerminalStatusFailsImmediately(t *testing.T) {
	t.Parallel()

	for _, status := range []string{
		"Failed", "Delivery Timed Out", "Execution Timed Out", "Canceled", "Undeliverable",
		"Terminated", "Invalid Platform", "Access Denied",
	} {
		t.Run(status, func(t *testing.T) {
			t.Parallel()
			calls := 0
			api := &platformaws.MockSSM{
				SendCommandFunc: sendOK("cmd-1"),
				GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
					calls++
					return invocation(status, "", "boom"), nil
				},
			}
			exec, _ := newTestExecutor(api)

			_, err := exec.Run(context.Background(), "i-123", []string{"false"}, Quiet())
			require.Error(t, err)
			assert.ErrorIs(t, err, provisioning.ErrCommandFailed)
			assert.NotErrorIs(t, err, retry.ErrExhausted)
			assert.Contains(t, err.Error(), status)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRun_StatusErrorsRetriedUntilBudgetBoundary(t *testing.T) {
	t.Parallel()

	calls := 0
	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			calls++
			if calls < 240 {
				return nil, errors.New("throttled")
			}
			return invocation("Success", "done\n", ""), nil
		},
	}
	rec := metrics.NewRecorder()
	exec, _ := newTestExecutor(api, WithMetrics(rec))

	lines, err := exec.Run(context.Background(), "i-123", []string{"long"}, Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, lines)
	assert.Equal(t, 240, calls)
}

func TestRun_InProgressExhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			calls++
			return invocation("In Progress", "", ""), nil
		},
	}
	exec, _ := newTestExecutor(api)

	_, err := exec.Run(context.Background(), "i-123", []string{"sleep 100"}, Quiet(), WithTimeout(60*time.Second))
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 4, calls)
}

func TestRun_MissingStatusIsInProgress(t *testing.T) {
	t.Parallel()

	calls := 0
	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			calls++
			switch calls {
			case 1:
				return nil, &ssmtypes.InvocationDoesNotExist{}
			case 2:
				return &ssm.GetCommandInvocationOutput{}, nil
			default:
				return invocation("Success", "ok", ""), nil
			}
		},
	}
	exec, obs := newTestExecutor(api)

	lines, err := exec.Run(context.Background(), "i-123", []string{"x"}, Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, lines)
	assert.Equal(t, 3, calls)
	assert.True(t, obs.Contains("Status not available for command cmd-1"))
}

func TestRun_TimeoutBelowMinimum(t *testing.T) {
	t.Parallel()

	api := &platformaws.MockSSM{
		SendCommandFunc: func(context.Context, *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
			t.Fatal("command must not be sent")
			return nil, nil
		},
	}
	exec, _ := newTestExecutor(api)

	_, err := exec.Run(context.Background(), "i-123", []string{"x"}, WithTimeout(29*time.Second))
	require.Error(t, err)
	assert.ErrorIs(t, err, provisioning.ErrConfiguration)
	assert.Contains(t, err.Error(), "execution_timeout")
}

func TestRun_SendErrors(t *testing.T) {
	t.Parallel()

	t.Run("api error", func(t *testing.T) {
		t.Parallel()
		api := &platformaws.MockSSM{
			SendCommandFunc: func(context.Context, *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
				return nil, errors.New("denied")
			},
		}
		exec, obs := newTestExecutor(api)

		_, err := exec.Run(context.Background(), "i-123", []string{"x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "denied")
		assert.Empty(t, obs.Messages(provisioning.LevelError), "the caller reports the failure")
	})

	t.Run("missing command id", func(t *testing.T) {
		t.Parallel()
		api := &platformaws.MockSSM{
			SendCommandFunc: func(context.Context, *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
				return &ssm.SendCommandOutput{}, nil
			},
		}
		exec, _ := newTestExecutor(api)

		_, err := exec.Run(context.Background(), "i-123", []string{"x"})
		assert.ErrorIs(t, err, provisioning.ErrConsistency)
	})
}

func TestRun_FullOutputFromBucket(t *testing.T) {
	t.Parallel()

	truncated := strings.Repeat("x", inlineOutputLimit)
	var sent *ssm.SendCommandInput
	api := &platformaws.MockSSM{
		SendCommandFunc: func(_ context.Context, in *ssm.SendCommandInput) (*ssm.SendCommandOutput, error) {
			sent = in
			return &ssm.SendCommandOutput{Command: &ssmtypes.Command{CommandId: aws.String("cmd-9")}}, nil
		},
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			return invocation("Success", truncated, ""), nil
		},
	}
	fetcher := &gwtesting.MockOutputFetcher{}
	fetcher.On("CommandOutput", mock.Anything, "out-bucket", "ssm", "cmd-9", "i-123", s3.Stdout).
		Return("full\noutput\n", nil)

	exec, _ := newTestExecutor(api, WithOutputBucket(fetcher, "out-bucket", "ssm"))

	lines, err := exec.Run(context.Background(), "i-123", []string{"big"}, Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"full", "output"}, lines)
	assert.Equal(t, "out-bucket", aws.ToString(sent.OutputS3BucketName))
	assert.Equal(t, "ssm", aws.ToString(sent.OutputS3KeyPrefix))
	fetcher.AssertExpectations(t)
}

func TestRun_FullOutputFallsBackToInline(t *testing.T) {
	t.Parallel()

	truncated := strings.Repeat("y", inlineOutputLimit)
	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-9"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			return invocation("Success", truncated, ""), nil
		},
	}
	fetcher := &gwtesting.MockOutputFetcher{}
	fetcher.On("CommandOutput", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, s3.Stdout).
		Return("", provisioning.ErrNotFound)

	exec, obs := newTestExecutor(api, WithOutputBucket(fetcher, "out-bucket", ""))

	lines, err := exec.Run(context.Background(), "i-123", []string{"big"}, Quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{truncated}, lines)
	assert.True(t, obs.Contains("using truncated stdout"))
}

func TestRunAndVerify(t *testing.T) {
	t.Parallel()

	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			return invocation("Success", "nginx is running\nok\n", ""), nil
		},
	}
	exec, _ := newTestExecutor(api)

	found, err := exec.RunAndVerify(context.Background(), "i-123", []string{"systemctl status nginx"}, "is running", Quiet())
	require.NoError(t, err)
	assert.True(t, found)

	found, err = exec.RunAndVerify(context.Background(), "i-123", []string{"systemctl status nginx"}, "stopped", Quiet())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	api := &platformaws.MockSSM{
		SendCommandFunc: sendOK("cmd-1"),
		GetCommandInvocationFunc: func(context.Context, *ssm.GetCommandInvocationInput) (*ssm.GetCommandInvocationOutput, error) {
			cancel()
			return invocation("Pending", "", ""), nil
		},
	}
	exec, _ := newTestExecutor(api)

	_, err := exec.Run(ctx, "i-123", []string{"x"}, Quiet())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\r\n\r\nb"))
	assert.Equal(t, []string{"single"}, splitLines("single"))
}
