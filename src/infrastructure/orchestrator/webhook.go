package orchestrator

import (
	"context"
)

type webhookResponse struct {
	CorrelationID    string `json:"correlationId"`
	CorrelationIDAlt string `json:"CorrelationId"`
}

// TriggerWebhook posts the raw input fields to a webhook trigger URL and
// returns the correlation id it issues. The URL is absolute and outside
// the jobs API; no orchestrator headers apply.
func (c *Client) TriggerWebhook(ctx context.Context, url string, input any) (string, error) {
	var out webhookResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&out).
		Post(url)
	if err != nil {
		return "", &LaunchError{Reason: "webhook trigger failed: " + err.Error()}
	}
	if resp.IsError() {
		return "", &LaunchError{Reason: "webhook trigger rejected", Status: resp.StatusCode(), Body: logBody(resp.Body())}
	}

	id := out.CorrelationID
	if id == "" {
		id = out.CorrelationIDAlt
	}
	if id == "" {
		return "", &LaunchError{Reason: "webhook response missing correlationId"}
	}

	clientLog.Info("webhook triggered", "correlationId", id)
	return id, nil
}
