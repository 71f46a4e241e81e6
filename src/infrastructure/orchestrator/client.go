package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"rpabridge/src/log"
)

const defaultScope = "OR.Jobs OR.Jobs.Read"

// Config holds the connection settings for one orchestrator tenant.
// Either FolderID or FolderKey identifies the folder jobs run in;
// FolderID wins when both are set.
type Config struct {
	BaseURL      string
	Tenant       string
	FolderID     string
	FolderKey    string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      time.Duration
}

// Client talks to the orchestrator's identity and jobs APIs. It owns the
// process-wide cached bearer credential; everything else is stateless.
type Client struct {
	cfg  Config
	http *resty.Client
	cred credentialCache
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Scope == "" {
		cfg.Scope = defaultScope
	}
	hc := resty.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}
	return &Client{
		cfg:  cfg,
		http: hc,
		now:  time.Now,
	}
}

// WithClock overrides the clock used for credential expiry, for tests.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) jobsPath(suffix string) string {
	return fmt.Sprintf("/%s/orchestrator_/odata/Jobs%s", c.cfg.Tenant, suffix)
}

// AuthError reports a failed client-credentials exchange.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return "token exchange failed: " + e.Body
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

// LaunchError reports a rejected or unusable job submission.
type LaunchError struct {
	Reason string
	Status int
	Body   string
}

func (e *LaunchError) Error() string {
	if e.Status == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: status %d: %s", e.Reason, e.Status, e.Body)
}

func logBody(body []byte) string {
	s := string(body)
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

var clientLog = log.WithName("orchestrator")
