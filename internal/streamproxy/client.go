package streamproxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the streaming proxy that re-serves plain HTTP media over HTTPS.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a proxy client. An empty baseURL leaves media URLs untouched.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether both the proxy address and its token are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

// ProxiedURL returns the address a browser should play mediaURL from.
// HTTPS sources are returned as-is; anything else goes through the proxy.
func (c *Client) ProxiedURL(mediaURL string) string {
	if mediaURL == "" {
		return ""
	}
	if strings.HasPrefix(mediaURL, "https://") || c.baseURL == "" {
		return mediaURL
	}
	q := url.Values{}
	q.Set("url", mediaURL)
	q.Set("token", c.token)
	return c.baseURL + "/proxy/stream?" + q.Encode()
}

// Health probes GET {baseURL}/health.
func (c *Client) Health(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("stream proxy not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach stream proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream proxy returned non-200 status: %s", resp.Status)
	}
	return nil
}
