package jobflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpabridge/src/core/jobflow"
	"rpabridge/src/infrastructure/orchestrator"
)

type observation struct {
	job   orchestrator.Job
	found bool
	err   error
}

// script replays a fixed sequence of lookup results and counts calls.
type script struct {
	steps   []observation
	lookups int
}

func newScript(steps ...observation) *script {
	return &script{steps: steps}
}

func (s *script) Lookup(t *testing.T) jobflow.Lookup {
	return func(context.Context) (orchestrator.Job, bool, error) {
		require.Less(t, s.lookups, len(s.steps), "lookup called more times than scripted")
		step := s.steps[s.lookups]
		s.lookups++
		return step.job, step.found, step.err
	}
}

func running() observation {
	return observation{job: orchestrator.Job{State: orchestrator.StateRunning}, found: true}
}

func pending() observation {
	return observation{job: orchestrator.Job{State: orchestrator.StatePending}, found: true}
}

func successful(output string) observation {
	return observation{
		job:   orchestrator.Job{Key: "k-1", State: orchestrator.StateSuccessful, OutputArguments: output},
		found: true,
	}
}

func notFound() observation {
	return observation{found: false}
}

// sleepRecorder captures delays instead of waiting.
func sleepRecorder(delays *[]time.Duration) jobflow.SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func expPolicy() jobflow.DelayPolicy {
	return jobflow.ExponentialBackoff{Initial: time.Second, Max: 10 * time.Second}
}

func TestPollerSucceedsAfterRunning(t *testing.T) {
	s := newScript(running(), running(), successful(`{"available":true,"message":"ok"}`))
	var delays []time.Duration

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15, NotFoundRetries: 3}).
		WithSleep(sleepRecorder(&delays))

	job, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"available":true,"message":"ok"}`, job.OutputArguments)
	assert.Equal(t, 3, s.lookups)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestPollerTimesOutAfterMaxAttempts(t *testing.T) {
	const maxAttempts = 5
	steps := make([]observation, maxAttempts)
	for i := range steps {
		steps[i] = pending()
	}
	s := newScript(steps...)
	var delays []time.Duration

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: maxAttempts}).
		WithSleep(sleepRecorder(&delays))

	_, err := p.Wait(context.Background())

	var timeoutErr *jobflow.PollTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, maxAttempts, timeoutErr.Attempts)
	assert.False(t, timeoutErr.NotFound)
	assert.Equal(t, maxAttempts, s.lookups, "no further lookups after exhaustion")
	assert.Len(t, delays, maxAttempts-1)
}

func TestPollerTerminalOnFirstObservation(t *testing.T) {
	s := newScript(observation{
		job:   orchestrator.Job{State: orchestrator.StateFaulted, Info: "robot crashed"},
		found: true,
	})
	var delays []time.Duration

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15}).
		WithSleep(sleepRecorder(&delays))

	_, err := p.Wait(context.Background())

	var failedErr *jobflow.JobFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, orchestrator.StateFaulted, failedErr.State)
	assert.Equal(t, "robot crashed", failedErr.Info)
	assert.Equal(t, 1, s.lookups)
	assert.Empty(t, delays)
}

func TestPollerStoppedIsTerminal(t *testing.T) {
	s := newScript(observation{
		job:   orchestrator.Job{State: orchestrator.StateStopped},
		found: true,
	})

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15}).
		WithSleep(sleepRecorder(&[]time.Duration{}))

	_, err := p.Wait(context.Background())

	var failedErr *jobflow.JobFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, orchestrator.StateStopped, failedErr.State)
}

func TestPollerEmptyOutputIsFailure(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty string", ""},
		{"blank string", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScript(successful(tt.output))
			p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15}).
				WithSleep(sleepRecorder(&[]time.Duration{}))

			_, err := p.Wait(context.Background())

			var missingErr *jobflow.MissingOutputError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, "k-1", missingErr.JobKey)
		})
	}
}

func TestPollerNotFoundUsesOwnBudget(t *testing.T) {
	// Two not-found lookups must not consume terminal-state attempts:
	// MaxAttempts of 3 still admits three real observations afterwards.
	s := newScript(notFound(), notFound(), running(), running(), successful(`{}`))
	var delays []time.Duration

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 3, NotFoundRetries: 3}).
		WithSleep(sleepRecorder(&delays))

	_, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, s.lookups)
	// not-found waits reuse the current attempt's delay (attempt 0)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, 2 * time.Second}, delays)
}

func TestPollerNotFoundBudgetExhausted(t *testing.T) {
	s := newScript(notFound(), notFound(), notFound())

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15, NotFoundRetries: 2}).
		WithSleep(sleepRecorder(&[]time.Duration{}))

	_, err := p.Wait(context.Background())

	var timeoutErr *jobflow.PollTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.True(t, timeoutErr.NotFound)
	assert.Equal(t, 3, s.lookups)
}

func TestPollerPropagatesLookupError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newScript(observation{err: boom})

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15}).
		WithSleep(sleepRecorder(&[]time.Duration{}))

	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPollerStopsOnCancelledContext(t *testing.T) {
	s := newScript(running(), running())
	ctx, cancel := context.WithCancel(context.Background())

	p := jobflow.NewPoller(s.Lookup(t), expPolicy(), jobflow.Budget{MaxAttempts: 15}).
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		})

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.lookups)
}

func TestPollerMaxWaitCeiling(t *testing.T) {
	// The wall-clock ceiling cuts off a loop whose attempt budget alone
	// would keep it going.
	steps := make([]observation, 100)
	for i := range steps {
		steps[i] = running()
	}
	s := newScript(steps...)

	p := jobflow.NewPoller(s.Lookup(t), jobflow.FixedDelay{Interval: 20 * time.Millisecond},
		jobflow.Budget{MaxAttempts: 100, MaxWait: 50 * time.Millisecond})

	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, s.lookups, 100)
}
