package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"podmatch/internal/pods"
)

// Client posts pod assignment notifications to the downstream webhook
// (mailer / dashboard refresh). With Skip set it becomes a no-op, which is
// the default for dev environments.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with a short timeout; notification delivery must
// never stall a worker.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type podAssignedPayload struct {
	Event string   `json:"event"`
	Pod   pods.Pod `json:"pod"`
}

// PodAssigned announces one finalized pod to the webhook.
func (c *Client) PodAssigned(ctx context.Context, p pods.Pod) error {
	if c.Skip || c.BaseURL == "" {
		return nil
	}
	body, err := json.Marshal(podAssignedPayload{Event: "pod.assigned", Pod: p})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/hooks/pods", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Health checks webhook reachability on worker startup.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip || c.BaseURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook health returned %d", resp.StatusCode)
	}
	return nil
}
