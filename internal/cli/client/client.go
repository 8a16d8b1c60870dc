package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/castle-go/internal/connection"
	"github.com/yndnr/castle-go/internal/infra/buildinfo"
	"github.com/yndnr/castle-go/internal/server/httpserver"
	"github.com/yndnr/castle-go/internal/server/httpserver/handler"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 10 * time.Second

// unixHost stands in for the host part of URLs sent over a Unix socket.
const unixHost = "castle-bridged"

// Client fetches health and statistics from castle-bridged.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for addr, which is one of "host:port",
// "http://host:port", "https://host:port", "unix:///path/to.sock" or an
// absolute socket path.
func New(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}

	if path, ok := socketPath(addr); ok {
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		}
		return &Client{
			baseURL: "http://" + unixHost,
			client:  &http.Client{Transport: transport, Timeout: timeout},
		}, nil
	}

	baseURL := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func socketPath(addr string) (string, bool) {
	if p, ok := strings.CutPrefix(addr, "unix://"); ok {
		return p, true
	}
	if strings.HasPrefix(addr, "/") {
		return addr, true
	}
	return "", false
}

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health fetches the health probe. An unhealthy bridge is not an error: the
// returned response carries its status and reason.
func (c *Client) Health(ctx context.Context) (*handler.HealthResponse, error) {
	var resp handler.HealthResponse
	if err := c.get(ctx, httpserver.HealthPath, &resp, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the connection statistics.
func (c *Client) Stats(ctx context.Context) (*connection.Stats, error) {
	var stats connection.Stats
	if err := c.get(ctx, httpserver.StatsPath, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// get decodes the JSON body of path into target. Statuses other than 200 and
// those listed in accept are errors.
func (c *Client) get(ctx context.Context, path string, target any, accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "castle-cli/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && !accepted(resp.StatusCode, accept) {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, errResp.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func accepted(status int, accept []int) bool {
	for _, s := range accept {
		if status == s {
			return true
		}
	}
	return false
}
