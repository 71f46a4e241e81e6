package jobflow

import (
	"fmt"

	"rpabridge/src/infrastructure/orchestrator"
)

// PollTimeoutError reports an exhausted poll budget: either the job
// stayed non-terminal for MaxAttempts observations, or the lookup never
// found it within its own retry allowance.
type PollTimeoutError struct {
	Attempts int
	NotFound bool
}

func (e *PollTimeoutError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("job not found after %d lookups", e.Attempts)
	}
	return fmt.Sprintf("job did not complete within %d attempts", e.Attempts)
}

// JobFailedError reports a remote terminal failure. The remote outcome
// is authoritative; this is never retried.
type JobFailedError struct {
	State orchestrator.JobState
	Info  string
}

func (e *JobFailedError) Error() string {
	info := e.Info
	if info == "" {
		info = "no details"
	}
	return fmt.Sprintf("job failed with state %s: %s", e.State, info)
}

// MissingOutputError reports a successful job whose output field is
// empty. Output is part of the success contract, so this is a hard
// failure, not an empty success.
type MissingOutputError struct {
	JobKey string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("job %s completed but has no output arguments", e.JobKey)
}

// MalformedOutputError reports job output that is not decodable JSON in
// the shape the integration declared.
type MalformedOutputError struct {
	Err error
}

func (e *MalformedOutputError) Error() string {
	return "malformed job output: " + e.Err.Error()
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}
