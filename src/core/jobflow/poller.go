package jobflow

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"rpabridge/src/infrastructure/orchestrator"
	"rpabridge/src/log"
)

// Lookup resolves the job record for one correlation handle. A job the
// orchestrator has not indexed yet is reported as found=false, not as an
// error.
type Lookup func(ctx context.Context) (orchestrator.Job, bool, error)

// Budget bounds one poll loop. MaxAttempts counts observations of a
// non-terminal state; NotFoundRetries is the independent allowance for
// lookups that return nothing (webhook-correlated jobs may not be
// indexed yet). A not-found lookup never consumes an attempt slot.
// MaxWait, when positive, is an overall wall-clock ceiling on top of the
// attempt counts.
type Budget struct {
	MaxAttempts     int
	NotFoundRetries int
	MaxWait         time.Duration
}

// SleepFunc suspends between attempts. The default honors context
// cancellation; tests inject a recorder instead of real timers.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller drives one job's completion: look up, inspect state, back off,
// repeat until terminal or out of budget.
type Poller struct {
	lookup Lookup
	policy DelayPolicy
	budget Budget
	sleep  SleepFunc
	log    logr.Logger
}

func NewPoller(lookup Lookup, policy DelayPolicy, budget Budget) *Poller {
	return &Poller{
		lookup: lookup,
		policy: policy,
		budget: budget,
		sleep:  sleepContext,
		log:    log.WithName("poller"),
	}
}

// WithSleep overrides the suspend primitive, for tests.
func (p *Poller) WithSleep(s SleepFunc) *Poller {
	p.sleep = s
	return p
}

// Wait polls until the job reaches a terminal state. On Successful it
// returns the job record with its output field verified non-empty; on
// Faulted or Stopped it fails with JobFailedError; when either budget
// runs out it fails with PollTimeoutError. Cancelling ctx stops the loop
// between attempts.
func (p *Poller) Wait(ctx context.Context) (orchestrator.Job, error) {
	if p.budget.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.budget.MaxWait)
		defer cancel()
	}

	notFound := 0
	for attempt := 0; ; {
		job, found, err := p.lookup(ctx)
		if err != nil {
			return orchestrator.Job{}, err
		}

		if !found {
			if notFound >= p.budget.NotFoundRetries {
				return orchestrator.Job{}, &PollTimeoutError{Attempts: notFound + 1, NotFound: true}
			}
			notFound++
			p.log.V(1).Info("job not indexed yet", "retry", notFound)
			if err := p.sleep(ctx, p.policy.Delay(attempt)); err != nil {
				return orchestrator.Job{}, err
			}
			continue
		}

		switch job.State {
		case orchestrator.StateSuccessful:
			if strings.TrimSpace(job.OutputArguments) == "" {
				return orchestrator.Job{}, &MissingOutputError{JobKey: job.Key}
			}
			p.log.Info("job completed", "key", job.Key, "attempts", attempt+1)
			return job, nil
		case orchestrator.StateFaulted, orchestrator.StateStopped:
			return orchestrator.Job{}, &JobFailedError{State: job.State, Info: job.Info}
		}

		if attempt+1 >= p.budget.MaxAttempts {
			return orchestrator.Job{}, &PollTimeoutError{Attempts: p.budget.MaxAttempts}
		}

		delay := p.policy.Delay(attempt)
		p.log.V(1).Info("job still running", "state", job.State, "attempt", attempt+1, "delay", delay)
		if err := p.sleep(ctx, delay); err != nil {
			return orchestrator.Job{}, err
		}
		attempt++
	}
}
