package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// ErrProxyOnly is returned by lifecycle calls in direct mode; only the proxy tracks stages.
var ErrProxyOnly = errors.New("lifecycle tracking is only available in proxy mode")

// ListLifecycle returns the proxy's most recently updated incidents.
func (c *IncidentClient) ListLifecycle(ctx context.Context, limit int) ([]hsg245.Lifecycle, error) {
	if c.mode != ModeProxy {
		return nil, ErrProxyOnly
	}
	u := c.baseURL + "/lifecycle"
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}

	var out []hsg245.Lifecycle
	if err := c.getData(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lifecycle returns the proxy's record for one incident.
func (c *IncidentClient) Lifecycle(ctx context.Context, incidentID string) (*hsg245.Lifecycle, error) {
	if c.mode != ModeProxy {
		return nil, ErrProxyOnly
	}
	if err := requireID("lifecycle", incidentID); err != nil {
		return nil, err
	}

	var out hsg245.Lifecycle
	if err := c.getData(ctx, c.baseURL+"/lifecycle/"+url.PathEscape(incidentID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *IncidentClient) getData(ctx context.Context, u string, out any) error {
	raw, _, _, err := c.doRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	var env hsg245.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode lifecycle response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
