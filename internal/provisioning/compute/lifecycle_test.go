package compute

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/metrics"
	"github.com/gwerks/gwerks/internal/provisioning"
	gwtesting "github.com/gwerks/gwerks/internal/testing"
)

func TestTerminate_DisablesProtectionAndWaits(t *testing.T) {
	t.Parallel()

	fake := gwtesting.NewFakeEC2(webInstance("i-1").Build())
	fake.Protected["i-1"] = true
	recorder := metrics.NewRecorder()
	b, obs := newTestBinder(fake, &stubReady{}, WithMetrics(recorder))

	err := b.Terminate(gwtesting.TestContext(t), "web", "", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"i-1"}, fake.Terminated)
	assert.False(t, fake.Protected["i-1"])
	inst, _ := fake.Instance("i-1")
	assert.Equal(t, types.InstanceStateNameTerminated, inst.State.Name)
	assert.True(t, obs.Contains("Termination of web-Test complete"))
	assert.InDelta(t, 1, counterValue(t, recorder, "gwerks_compute_terminations_total"), 0)
}

func counterValue(t *testing.T, r *metrics.Recorder, name string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestTerminate_SpotSkipsProtection(t *testing.T) {
	t.Parallel()

	fake := gwtesting.NewFakeEC2(webInstance("i-1").Spot("sir-1").Build())
	b, _ := newTestBinder(fake, &stubReady{})

	require.NoError(t, b.Terminate(gwtesting.TestContext(t), "web", "", false))

	_, touched := fake.Protected["i-1"]
	assert.False(t, touched)
	assert.Equal(t, []string{"i-1"}, fake.Terminated)
}

func TestLifecycle_MissingMachineIsNoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(ctx context.Context, b *Binder) error
	}{
		{"terminate", func(ctx context.Context, b *Binder) error { return b.Terminate(ctx, "web", "", false) }},
		{"stop", func(ctx context.Context, b *Binder) error { return b.Stop(ctx, "web", "") }},
		{"start", func(ctx context.Context, b *Binder) error { return b.Start(ctx, "web", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// already terminated machines no longer match
			fake := gwtesting.NewFakeEC2(webInstance("i-1").WithState(types.InstanceStateNameTerminated).Build())
			b, obs := newTestBinder(fake, &stubReady{})

			require.NoError(t, tt.run(gwtesting.TestContext(t), b))
			assert.Empty(t, fake.Terminated)
			assert.Empty(t, fake.Stopped)
			assert.Empty(t, fake.Started)
			assert.True(t, obs.Contains("not found, nothing to do"))
		})
	}
}

func TestLifecycle_KeyPairSafetyCheck(t *testing.T) {
	t.Parallel()

	fake := gwtesting.NewFakeEC2(webInstance("i-1").WithKeyName("someone-elses").Build())
	b, _ := newTestBinder(fake, &stubReady{})
	ctx := gwtesting.TestContext(t)

	err := b.Stop(ctx, "web", "")
	require.ErrorIs(t, err, provisioning.ErrSafetyCheck)
	assert.Contains(t, err.Error(), "is not associated with the ops-key key pair")

	require.ErrorIs(t, b.Start(ctx, "web", ""), provisioning.ErrSafetyCheck)
	require.ErrorIs(t, b.Terminate(ctx, "web", "", false), provisioning.ErrSafetyCheck)
	assert.Empty(t, fake.Stopped)
	assert.Empty(t, fake.Started)
	assert.Empty(t, fake.Terminated)

	require.NoError(t, b.Stop(ctx, "web", "someone-elses"))
	assert.Equal(t, []string{"i-1"}, fake.Stopped)
}

func TestTerminate_ForceOverridesKeyPair(t *testing.T) {
	t.Parallel()

	fake := gwtesting.NewFakeEC2(webInstance("i-1").WithKeyName("someone-elses").Build())
	b, obs := newTestBinder(fake, &stubReady{})

	require.NoError(t, b.Terminate(gwtesting.TestContext(t), "web", "", true))

	assert.Equal(t, []string{"i-1"}, fake.Terminated)
	assert.NotEmpty(t, obs.Messages(provisioning.LevelWarn))
}

func TestStopStart(t *testing.T) {
	t.Parallel()

	fake := gwtesting.NewFakeEC2(webInstance("i-1").Build())
	b, _ := newTestBinder(fake, &stubReady{})
	ctx := gwtesting.TestContext(t)

	require.NoError(t, b.Stop(ctx, "web", ""))
	assert.Equal(t, []string{"i-1"}, fake.Stopped)

	require.NoError(t, b.Start(ctx, "web", ""))
	assert.Equal(t, []string{"i-1"}, fake.Started)
}

func TestToggleTerminationProtection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		instance *gwtesting.InstanceBuilder
		before   bool
		want     bool
	}{
		{name: "enable", instance: webInstance("i-1"), before: false, want: true},
		{name: "disable", instance: webInstance("i-1"), before: true, want: false},
		{name: "spot is a noop", instance: webInstance("i-1").Spot("sir-1"), before: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := gwtesting.NewFakeEC2(tt.instance.Build())
			fake.Protected["i-1"] = tt.before
			b, _ := newTestBinder(fake, &stubReady{})
			ctx := gwtesting.TestContext(t)

			m, err := b.Find(ctx, "web")
			require.NoError(t, err)

			got, err := b.ToggleTerminationProtection(ctx, m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			protected, err := b.IsTerminationProtected(ctx, "i-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, protected)
		})
	}
}
