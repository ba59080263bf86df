package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mandala-Network/Mandala-CLI/internal/node"
	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

const (
	// lookupService is the service name registries index Mandala nodes under.
	lookupService = "mandala-node"

	endpointTimeout = 10 * time.Second
)

// httpClient is shared across registry queries. Per-endpoint deadlines come
// from the request context, not a client timeout.
var httpClient = &http.Client{}

// Filter narrows a registry lookup to nodes with particular capabilities.
type Filter struct {
	GPU     bool
	GPUType string
}

func (f Filter) queryType() string {
	if f.GPU {
		return "gpu"
	}
	return "any"
}

func (f Filter) queryValue() string {
	if f.GPUType != "" {
		return f.GPUType
	}
	return "*"
}

// DiscoveredNode is an ephemeral discovery result. It is consumed immediately
// to populate a deployment target's URL and never persisted.
type DiscoveredNode struct {
	URL         string
	IdentityKey string
	GPU         node.GPUInfo
	Pricing     map[string]string
	Runtimes    []string
	LastSeen    time.Time
}

// Matches reports whether the node satisfies the filter. Registries are
// expected to filter server-side; this re-check guards against lax ones.
func (n *DiscoveredNode) Matches(f Filter) bool {
	if f.GPU && !n.GPU.Enabled {
		return false
	}
	if f.GPUType != "" && !strings.EqualFold(n.GPU.Type, f.GPUType) {
		return false
	}
	return true
}

type lookupRequest struct {
	Service string      `json:"service"`
	Query   lookupQuery `json:"query"`
}

type lookupQuery struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type lookupResponse struct {
	Outputs []lookupOutput `json:"outputs"`
}

type lookupOutput struct {
	Fields []string `json:"fields"`
}

// Discover fans out lookup queries to every registry endpoint and merges the
// results, deduplicated by node URL with the first occurrence winning (in
// registry declaration order). It is explicitly best-effort: an unreachable
// endpoint or a malformed record is skipped with a warning, and total failure
// of every endpoint yields an empty list, not an error.
func Discover(ctx context.Context, registries []string, filter Filter) []DiscoveredNode {
	perEndpoint := make([][]DiscoveredNode, len(registries))

	g, gctx := errgroup.WithContext(ctx)
	for i, endpoint := range registries {
		i, endpoint := i, endpoint
		g.Go(func() error {
			nodes, err := queryRegistry(gctx, endpoint, filter)
			if err != nil {
				logging.Warn("Discovery", "Registry %s unreachable, skipping: %v", endpoint, err)
				return nil
			}
			perEndpoint[i] = nodes
			return nil
		})
	}
	// Goroutines never return an error; they downgrade failures to warnings.
	g.Wait()

	seen := make(map[string]bool)
	var merged []DiscoveredNode
	for _, nodes := range perEndpoint {
		for _, n := range nodes {
			if seen[n.URL] {
				continue
			}
			seen[n.URL] = true
			merged = append(merged, n)
		}
	}

	logging.Info("Discovery", "Discovered %d node(s) across %d registries", len(merged), len(registries))
	return merged
}

func queryRegistry(ctx context.Context, endpoint string, filter Filter) ([]DiscoveredNode, error) {
	reqBody, err := json.Marshal(lookupRequest{
		Service: lookupService,
		Query:   lookupQuery{Type: filter.queryType(), Value: filter.queryValue()},
	})
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, strings.TrimRight(endpoint, "/")+"/lookup", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return nil, fmt.Errorf("malformed lookup response: %w", err)
	}

	var nodes []DiscoveredNode
	for _, output := range lookup.Outputs {
		n, err := parseRecord(output.Fields)
		if err != nil {
			logging.Warn("Discovery", "Skipping malformed record from %s: %v", endpoint, err)
			continue
		}
		if !n.Matches(filter) {
			continue
		}
		nodes = append(nodes, *n)
	}
	return nodes, nil
}

// parseRecord decodes the positional field encoding registries use:
// URL, identity key, capabilities JSON, pricing JSON, comma-separated
// runtimes, last-seen unix timestamp. Trailing fields may be absent.
func parseRecord(fields []string) (*DiscoveredNode, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("record has %d fields, need at least URL and identity key", len(fields))
	}
	if fields[0] == "" {
		return nil, fmt.Errorf("record has empty URL")
	}

	n := &DiscoveredNode{
		URL:         fields[0],
		IdentityKey: fields[1],
	}

	if len(fields) > 2 && fields[2] != "" {
		var caps struct {
			GPU node.GPUInfo `json:"gpu"`
		}
		if err := json.Unmarshal([]byte(fields[2]), &caps); err != nil {
			return nil, fmt.Errorf("bad capabilities field: %w", err)
		}
		n.GPU = caps.GPU
	}

	if len(fields) > 3 && fields[3] != "" {
		if err := json.Unmarshal([]byte(fields[3]), &n.Pricing); err != nil {
			return nil, fmt.Errorf("bad pricing field: %w", err)
		}
	}

	if len(fields) > 4 && fields[4] != "" {
		for _, r := range strings.Split(fields[4], ",") {
			if r = strings.TrimSpace(r); r != "" {
				n.Runtimes = append(n.Runtimes, r)
			}
		}
	}

	if len(fields) > 5 && fields[5] != "" {
		unix, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad last-seen field %q: %w", fields[5], err)
		}
		n.LastSeen = time.Unix(unix, 0)
	}

	return n, nil
}
