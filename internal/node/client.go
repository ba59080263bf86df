package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

const (
	defaultRequestTimeout = 30 * time.Second

	// DefaultPollInterval is how often readiness is checked.
	DefaultPollInterval = 5 * time.Second
	// DefaultReadyTimeout caps the readiness wait per service.
	DefaultReadyTimeout = 300 * time.Second
)

// Client talks to a single Mandala node. All calls are JSON over HTTPS; the
// caller's identity token is attached as a bearer header. The zero value is
// not usable, construct with NewClient.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// PollInterval and ReadyTimeout control WaitOnline. Tests shorten them.
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

// NewClient creates a client for the node at baseURL. The token may be empty
// for nodes that accept unauthenticated calls (local development nodes).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},

		PollInterval: DefaultPollInterval,
		ReadyTimeout: DefaultReadyTimeout,
	}
}

// BaseURL returns the node URL this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Domain returns the host portion of the node URL, used to derive service
// URLs. Falls back to the raw base URL when it does not parse.
func (c *Client) Domain() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(strings.TrimPrefix(c.baseURL, "https://"), "http://")
	}
	return u.Host
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s%s failed: %w", c.baseURL, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("node %s returned %d for %s: %s", c.baseURL, resp.StatusCode, path, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// probeClient is shared across Probe calls; Probe is a package function with
// no Client instance to hang one on.
var probeClient = &http.Client{Timeout: defaultRequestTimeout}

// uploadClient has no timeout: archive uploads are bounded by the caller's
// context, not a fixed request budget.
var uploadClient = &http.Client{}

// Probe queries a node's public capability endpoint. No authentication is
// required. Missing optional fields default to empty/disabled; only a
// transport failure or a non-2xx status is an error.
func Probe(ctx context.Context, nodeURL string) (*NodeCapabilities, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(nodeURL, "/")+"/api/v1/public", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request for %s: %w", nodeURL, err)
	}

	resp, err := probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("node %s is unreachable: %w", nodeURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("node %s returned %d for capability probe", nodeURL, resp.StatusCode)
	}

	caps := &NodeCapabilities{}
	if err := json.NewDecoder(resp.Body).Decode(caps); err != nil {
		return nil, fmt.Errorf("node %s returned a malformed capability response: %w", nodeURL, err)
	}
	if caps.URL == "" {
		caps.URL = nodeURL
	}
	return caps, nil
}

// Register registers the caller's identity with the node. The call is
// idempotent server-side; callers still cache per node URL to skip the
// round-trip entirely.
func (c *Client) Register(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/register", struct{}{}, nil); err != nil {
		return fmt.Errorf("failed to register with node %s: %w", c.baseURL, err)
	}
	logging.Debug("NodeClient", "Registered identity with %s", c.baseURL)
	return nil
}

// CreateProject creates a project on the node scoped to the given network and
// returns its identifier.
func (c *Client) CreateProject(ctx context.Context, name, network string) (string, error) {
	req := struct {
		Name    string `json:"name"`
		Network string `json:"network"`
	}{Name: name, Network: network}

	var resp struct {
		ProjectID string `json:"projectId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/create", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create project on %s: %w", c.baseURL, err)
	}
	if resp.ProjectID == "" {
		return "", fmt.Errorf("node %s returned no project ID", c.baseURL)
	}
	logging.Info("NodeClient", "Created project %s on %s (network %s)", resp.ProjectID, c.baseURL, network)
	return resp.ProjectID, nil
}

// RequestDeploy asks the node for a new deployment slot in the project and
// returns the upload URL and deployment identifier.
func (c *Client) RequestDeploy(ctx context.Context, projectID string) (*DeploySlot, error) {
	var slot DeploySlot
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/"+projectID+"/deploy", struct{}{}, &slot); err != nil {
		return nil, fmt.Errorf("failed to request deployment slot for project %s: %w", projectID, err)
	}
	if slot.UploadURL == "" || slot.DeploymentID == "" {
		return nil, fmt.Errorf("node %s returned an incomplete deployment slot for project %s", c.baseURL, projectID)
	}
	return &slot, nil
}

// Upload streams the archive to the deployment slot's upload URL, tagged with
// the service name so one project can host multiple named services.
func (c *Client) Upload(ctx context.Context, uploadURL, serviceName, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	u, err := url.Parse(uploadURL)
	if err != nil {
		return fmt.Errorf("invalid upload URL %q: %w", uploadURL, err)
	}
	q := u.Query()
	q.Set("serviceName", serviceName)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), f)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if info, err := f.Stat(); err == nil {
		req.ContentLength = info.Size()
	}

	// Uploads of large contexts can exceed the default request timeout, so
	// this client carries none.
	resp, err := uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload of %s rejected with status %d", serviceName, resp.StatusCode)
	}
	logging.Debug("NodeClient", "Uploaded archive for service %s", serviceName)
	return nil
}

// UpdateSettings pushes environment variables to the project. The node merges
// them server-side with whatever is already set.
func (c *Client) UpdateSettings(ctx context.Context, projectID string, env map[string]string) error {
	req := struct {
		Env map[string]string `json:"env"`
	}{Env: env}
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/"+projectID+"/settings/update", req, nil); err != nil {
		return fmt.Errorf("failed to update settings for project %s: %w", projectID, err)
	}
	return nil
}

// Info fetches the project's current status.
func (c *Client) Info(ctx context.Context, projectID string) (*ProjectInfo, error) {
	var info ProjectInfo
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/"+projectID+"/info", struct{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// WaitOnline polls the project's info endpoint until it reports online or the
// ready timeout elapses. A timeout is not an error: the service is presumed
// to still be starting and the deployment run continues. The returned bool is
// the final online state.
func (c *Client) WaitOnline(ctx context.Context, projectID string) (bool, error) {
	deadline := time.NewTimer(c.ReadyTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		info, err := c.Info(ctx, projectID)
		if err != nil {
			// The project exists at this point, so a failed poll is
			// transient; log and keep polling until the budget runs out.
			logging.Debug("NodeClient", "Status poll for project %s failed: %v", projectID, err)
		} else if info.Status.Online {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// StoreServiceLinks records link metadata on the project for later
// introspection. Metadata only; the environment itself goes through
// UpdateSettings.
func (c *Client) StoreServiceLinks(ctx context.Context, projectID string, links []ServiceLinkRecord) error {
	req := struct {
		Links []ServiceLinkRecord `json:"links"`
	}{Links: links}
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/"+projectID+"/service-links", req, nil); err != nil {
		return fmt.Errorf("failed to store service links for project %s: %w", projectID, err)
	}
	return nil
}

// Restart triggers a restart of the project's services so freshly injected
// environment variables take effect.
func (c *Client) Restart(ctx context.Context, projectID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/project/"+projectID+"/admin/restart", struct{}{}, nil); err != nil {
		return fmt.Errorf("failed to restart project %s: %w", projectID, err)
	}
	return nil
}
