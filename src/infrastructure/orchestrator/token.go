package orchestrator

import (
	"context"
	"sync/atomic"
	"time"
)

// tokenSafetyMargin is subtracted from the upstream TTL so a returned
// credential stays valid while the request that fetched it is in flight.
const tokenSafetyMargin = 60 * time.Second

type credential struct {
	token     string
	expiresAt time.Time
}

// credentialCache holds the single process-wide credential. Replacement
// is atomic; concurrent refreshes after expiry are tolerated rather than
// serialized, since the token endpoint is idempotent and cheap next to
// job polling. Last writer wins.
type credentialCache struct {
	ptr atomic.Pointer[credential]
}

func (cc *credentialCache) get(now time.Time) (string, bool) {
	cred := cc.ptr.Load()
	if cred == nil || !now.Before(cred.expiresAt) {
		return "", false
	}
	return cred.token, true
}

func (cc *credentialCache) put(token string, expiresAt time.Time) {
	cc.ptr.Store(&credential{token: token, expiresAt: expiresAt})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a bearer token valid for at least the safety margin,
// refreshing it through the client-credentials grant when the cached one
// is absent or expired.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.cred.get(c.now()); ok {
		return token, nil
	}

	clientLog.V(1).Info("fetching oauth token")

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"scope":         c.cfg.Scope,
		}).
		SetResult(&out).
		Post("/identity_/connect/token")
	if err != nil {
		return "", &AuthError{Body: err.Error()}
	}
	if resp.IsError() {
		return "", &AuthError{Status: resp.StatusCode(), Body: logBody(resp.Body())}
	}
	if out.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode(), Body: "token response missing access_token"}
	}

	expiresAt := c.now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenSafetyMargin)
	c.cred.put(out.AccessToken, expiresAt)
	return out.AccessToken, nil
}
