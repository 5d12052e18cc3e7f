package influxdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
)

// Default timeouts for store operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
	defaultQueryTimeout   = 5 * time.Second
)

// Client wraps the InfluxDB client with watermon-specific functionality.
//
// Thread Safety: all methods are safe for concurrent use, though the
// expected load is a single household session writing one point at a time.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cfg      config.InfluxConfig

	// httpClient serves the raw /query endpoint (InfluxQL).
	httpClient *http.Client
	baseURL    string

	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to the InfluxDB server.
//
// It performs the following:
//  1. Creates the client in 1.8 compatibility mode (user:password token)
//  2. Verifies connectivity with a ping
//  3. Creates the configured database if it does not exist yet
//  4. Sets up the blocking write API
//
// Parameters:
//   - ctx: Context for cancellation during connect
//   - cfg: Influx configuration (file values plus INFLUX_* overrides)
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the server is unreachable or bootstrap fails
func Connect(ctx context.Context, cfg config.InfluxConfig) (*Client, error) {
	baseURL := strings.TrimRight(cfg.URL(), "/")
	token := fmt.Sprintf("%s:%s", cfg.Username, cfg.Password)

	client := influxdb2.NewClient(baseURL, token)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client: client,
		// v1.8 compatibility: org is ignored, bucket is the database name
		// (default retention policy).
		writeAPI:   client.WriteAPIBlocking("", cfg.Database),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultQueryTimeout},
		baseURL:    baseURL,
		connected:  true,
	}

	if err := c.ensureDatabase(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// ensureDatabase creates the configured database if it does not exist.
// CREATE DATABASE is idempotent on InfluxDB 1.x.
func (c *Client) ensureDatabase(ctx context.Context) error {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("CREATE DATABASE %q", c.cfg.Database))
	if c.cfg.Username != "" {
		params.Set("u", c.cfg.Username)
		params.Set("p", c.cfg.Password)
	}

	endpoint := c.baseURL + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("creating database request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creating database %q: %w", c.cfg.Database, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("creating database %q: HTTP %d", c.cfg.Database, resp.StatusCode)
	}

	return nil
}

// Close shuts down the InfluxDB connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: this reflects the last known state. For reliability,
// use HealthCheck which performs an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
