package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// JobState is the orchestrator-side lifecycle state of a job.
type JobState string

const (
	StatePending    JobState = "Pending"
	StateRunning    JobState = "Running"
	StateSuccessful JobState = "Successful"
	StateFaulted    JobState = "Faulted"
	StateStopped    JobState = "Stopped"
)

// Terminal reports whether no further transitions can occur.
func (s JobState) Terminal() bool {
	return s == StateSuccessful || s == StateFaulted || s == StateStopped
}

// Job is the orchestrator's job record. OutputArguments carries the
// automation's result as a JSON-encoded string on successful jobs.
type Job struct {
	ID              int64    `json:"Id"`
	Key             string   `json:"Key"`
	State           JobState `json:"State"`
	Info            string   `json:"Info"`
	ReleaseName     string   `json:"ReleaseName"`
	OutputArguments string   `json:"OutputArguments"`
	StartTime       string   `json:"StartTime"`
	EndTime         string   `json:"EndTime"`
}

type jobList struct {
	Value []Job `json:"value"`
}

type startInfo struct {
	ReleaseKey     string `json:"ReleaseKey"`
	Strategy       string `json:"Strategy"`
	JobsCount      int    `json:"JobsCount"`
	InputArguments string `json:"InputArguments"`
}

type startJobsRequest struct {
	StartInfo startInfo `json:"startInfo"`
}

// authed prepares a request with the bearer token and the tenant/folder
// headers every jobs-API call requires.
func (c *Client) authed(ctx context.Context) (*resty.Request, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-UIPATH-TenantName", c.cfg.Tenant)
	switch {
	case c.cfg.FolderID != "":
		req.SetHeader("X-UIPATH-OrganizationUnitId", c.cfg.FolderID)
	case c.cfg.FolderKey != "":
		req.SetHeader("X-UIPATH-FolderKey", c.cfg.FolderKey)
	}
	return req, nil
}

// StartJob submits exactly one job for the release and returns its
// descriptor. Callers must not retry blindly; every call creates a new
// remote job.
func (c *Client) StartJob(ctx context.Context, releaseKey string, input any) (Job, error) {
	args, err := json.Marshal(input)
	if err != nil {
		return Job{}, &LaunchError{Reason: "encode input arguments: " + err.Error()}
	}

	req, err := c.authed(ctx)
	if err != nil {
		return Job{}, err
	}

	var out jobList
	resp, err := req.
		SetBody(startJobsRequest{StartInfo: startInfo{
			ReleaseKey:     releaseKey,
			Strategy:       "ModernJobsCount",
			JobsCount:      1,
			InputArguments: string(args),
		}}).
		SetResult(&out).
		Post(c.jobsPath("/UiPath.Server.Configuration.OData.StartJobs"))
	if err != nil {
		return Job{}, &LaunchError{Reason: "start jobs request failed: " + err.Error()}
	}
	if resp.IsError() {
		return Job{}, &LaunchError{Reason: "start jobs rejected", Status: resp.StatusCode(), Body: logBody(resp.Body())}
	}
	if len(out.Value) == 0 {
		return Job{}, &LaunchError{Reason: "start jobs returned no job information"}
	}

	job := out.Value[0]
	clientLog.Info("job started", "id", job.ID, "key", job.Key)
	return job, nil
}

// JobByID resolves a job by its numeric id. A missing job is reported as
// found=false, not as an error, so the poller can treat it as transient.
func (c *Client) JobByID(ctx context.Context, id int64) (Job, bool, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return Job{}, false, err
	}
	var out Job
	resp, err := req.SetResult(&out).Get(c.jobsPath(fmt.Sprintf("(%d)", id)))
	if err != nil {
		return Job{}, false, fmt.Errorf("fetch job %d: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Job{}, false, nil
	}
	if resp.IsError() {
		return Job{}, false, fmt.Errorf("fetch job %d: status %d: %s", id, resp.StatusCode(), logBody(resp.Body()))
	}
	return out, true, nil
}

// JobByKey resolves a job by its key or webhook correlation id.
func (c *Client) JobByKey(ctx context.Context, key string) (Job, bool, error) {
	return c.queryOne(ctx, map[string]string{
		"$filter": fmt.Sprintf("Key eq guid'%s'", key),
	})
}

// LatestSuccessfulJob resolves the most recently finished successful job
// for a process. In-flight or faulted jobs are invisible to this lookup;
// waiting on them is the poller's not-found budget.
func (c *Client) LatestSuccessfulJob(ctx context.Context, processName string) (Job, bool, error) {
	return c.queryOne(ctx, map[string]string{
		"$filter":  fmt.Sprintf("ProcessName eq '%s' and State eq 'Successful'", processName),
		"$orderby": "EndTime desc",
		"$top":     "1",
	})
}

func (c *Client) queryOne(ctx context.Context, params map[string]string) (Job, bool, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return Job{}, false, err
	}
	var out jobList
	resp, err := req.SetQueryParams(params).SetResult(&out).Get(c.jobsPath(""))
	if err != nil {
		return Job{}, false, fmt.Errorf("query jobs: %w", err)
	}
	if resp.IsError() {
		return Job{}, false, fmt.Errorf("query jobs: status %d: %s", resp.StatusCode(), logBody(resp.Body()))
	}
	if len(out.Value) == 0 {
		return Job{}, false, nil
	}
	return out.Value[0], true, nil
}
