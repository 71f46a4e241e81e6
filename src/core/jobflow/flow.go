package jobflow

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"

	"rpabridge/src/infrastructure/orchestrator"
	"rpabridge/src/log"
)

// JobAPI is the orchestrator surface a flow needs.
type JobAPI interface {
	StartJob(ctx context.Context, releaseKey string, input any) (orchestrator.Job, error)
	TriggerWebhook(ctx context.Context, url string, input any) (string, error)
	JobByID(ctx context.Context, id int64) (orchestrator.Job, bool, error)
	JobByKey(ctx context.Context, key string) (orchestrator.Job, bool, error)
	LatestSuccessfulJob(ctx context.Context, processName string) (orchestrator.Job, bool, error)
}

// Runner runs one launch-poll-extract pipeline for an inbound request.
type Runner interface {
	Run(ctx context.Context, input map[string]any) (json.RawMessage, error)
}

// LaunchFunc submits one unit of work and returns the lookup that will
// find the resulting job.
type LaunchFunc func(ctx context.Context, input map[string]any) (Lookup, error)

// ByID polls a job by its numeric id.
func ByID(api JobAPI, id int64) Lookup {
	return func(ctx context.Context) (orchestrator.Job, bool, error) {
		return api.JobByID(ctx, id)
	}
}

// ByKey polls a job by its key or webhook correlation id.
func ByKey(api JobAPI, key string) Lookup {
	return func(ctx context.Context) (orchestrator.Job, bool, error) {
		return api.JobByKey(ctx, key)
	}
}

// ByProcess polls for the most recent successful job of a process.
func ByProcess(api JobAPI, processName string) Lookup {
	return func(ctx context.Context) (orchestrator.Job, bool, error) {
		return api.LatestSuccessfulJob(ctx, processName)
	}
}

// StartJobLaunch starts the release directly and polls the created job,
// by key when the orchestrator issued one, by id otherwise.
func StartJobLaunch(api JobAPI, releaseKey string) LaunchFunc {
	return func(ctx context.Context, input map[string]any) (Lookup, error) {
		job, err := api.StartJob(ctx, releaseKey, input)
		if err != nil {
			return nil, err
		}
		if job.Key != "" {
			return ByKey(api, job.Key), nil
		}
		return ByID(api, job.ID), nil
	}
}

// WebhookLaunch triggers the webhook and polls the correlated job by the
// issued correlation id.
func WebhookLaunch(api JobAPI, url string) LaunchFunc {
	return func(ctx context.Context, input map[string]any) (Lookup, error) {
		id, err := api.TriggerWebhook(ctx, url, input)
		if err != nil {
			return nil, err
		}
		return ByKey(api, id), nil
	}
}

// WebhookProcessLaunch triggers the webhook and polls by process name
// recency, for webhooks that issue no usable correlation id. The lookup
// only sees successful jobs, so waiting rides on the not-found budget.
func WebhookProcessLaunch(api JobAPI, url, processName string) LaunchFunc {
	return func(ctx context.Context, input map[string]any) (Lookup, error) {
		if _, err := api.TriggerWebhook(ctx, url, input); err != nil {
			return nil, err
		}
		return ByProcess(api, processName), nil
	}
}

// Flow binds one integration's launch mode, poll budget, delay policy
// and extraction shape into a Runner.
type Flow struct {
	name    string
	launch  LaunchFunc
	policy  DelayPolicy
	budget  Budget
	extract Extractor
	sleep   SleepFunc
	log     logr.Logger
}

func NewFlow(name string, launch LaunchFunc, policy DelayPolicy, budget Budget, extract Extractor) *Flow {
	return &Flow{
		name:    name,
		launch:  launch,
		policy:  policy,
		budget:  budget,
		extract: extract,
		sleep:   sleepContext,
		log:     log.WithName("jobflow").WithValues("integration", name),
	}
}

// WithSleep overrides the suspend primitive of the flow's pollers, for
// tests.
func (f *Flow) WithSleep(s SleepFunc) *Flow {
	f.sleep = s
	return f
}

// Run performs one full launch → poll → extract pass. Each inbound
// request is one attempt at the whole pipeline; nothing is retried
// across a failed run.
func (f *Flow) Run(ctx context.Context, input map[string]any) (json.RawMessage, error) {
	lookup, err := f.launch(ctx, input)
	if err != nil {
		return nil, err
	}

	poller := NewPoller(lookup, f.policy, f.budget).WithSleep(f.sleep)
	poller.log = f.log

	job, err := poller.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return f.extract.Extract(job.OutputArguments)
}
