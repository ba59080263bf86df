package orchestrator

import (
	"context"
	"fmt"

	"github.com/Mandala-Network/Mandala-CLI/internal/config"
	"github.com/Mandala-Network/Mandala-CLI/internal/discovery"
	"github.com/Mandala-Network/Mandala-CLI/internal/manifest"
	"github.com/Mandala-Network/Mandala-CLI/internal/node"
	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

// Resolver maps services onto concrete deployment targets and brings targets
// to a deployable state (node URL discovered, identity registered, project
// created). It owns the per-run registration cache: a node once registered is
// not re-registered, even across calls for different services or projects.
type Resolver struct {
	cfg      config.Config
	selector NodeSelector

	clients    map[string]*node.Client
	registered map[string]bool
}

// NewResolver creates a resolver. The selector is consulted when a
// GPU-requiring target has no URL and discovery returns several candidates.
func NewResolver(cfg config.Config, selector NodeSelector) *Resolver {
	return &Resolver{
		cfg:        cfg,
		selector:   selector,
		clients:    make(map[string]*node.Client),
		registered: make(map[string]bool),
	}
}

// Client returns the node client for a URL, creating and caching it on first
// use. Poll tuning from the CLI config is applied here so every caller gets
// consistent readiness behavior.
func (r *Resolver) Client(nodeURL string) *node.Client {
	if c, ok := r.clients[nodeURL]; ok {
		return c
	}
	c := node.NewClient(nodeURL, r.cfg.Token)
	if r.cfg.PollInterval > 0 {
		c.PollInterval = r.cfg.PollInterval
	}
	if r.cfg.ReadyTimeout > 0 {
		c.ReadyTimeout = r.cfg.ReadyTimeout
	}
	r.clients[nodeURL] = c
	return c
}

// Resolve maps a service to its deployment target: the declared provider
// alias, or the manifest's first target when the service declares none
// (single-target manifests need no alias).
func (r *Resolver) Resolve(m *manifest.Manifest, serviceName string) (*manifest.DeploymentTarget, error) {
	svc, ok := m.Services[serviceName]
	if !ok {
		return nil, fmt.Errorf("service %q not found in manifest", serviceName)
	}

	if svc.Provider != "" {
		target := m.Target(svc.Provider)
		if target == nil {
			return nil, fmt.Errorf("service %q references undeclared provider %q", serviceName, svc.Provider)
		}
		return target, nil
	}

	if len(m.Deployments) == 0 {
		return nil, fmt.Errorf("service %q has no provider and the manifest declares no deployment targets", serviceName)
	}
	return m.Deployments[0], nil
}

// EnsureURL fills in a target's node URL when it is missing. GPU-requiring
// targets go through discovery and node selection; a target without a GPU
// requirement and without a URL is a configuration error, since there is no
// way to guess a conventional node.
func (r *Resolver) EnsureURL(ctx context.Context, target *manifest.DeploymentTarget) error {
	if target.URL != "" {
		return nil
	}

	if target.Requires == nil || !target.Requires.GPU {
		return fmt.Errorf("target %q has no node URL and no GPU requirement to discover one by; set the url field", target.Name)
	}

	filter := discovery.Filter{GPU: true, GPUType: target.Requires.GPUType}
	candidates := discovery.Discover(ctx, r.cfg.Registries, filter)
	if len(candidates) == 0 {
		if target.Requires.GPUType != "" {
			return fmt.Errorf("no nodes offering GPU type %q found for target %q", target.Requires.GPUType, target.Name)
		}
		return fmt.Errorf("no GPU nodes found for target %q", target.Name)
	}

	selected, err := r.selector.SelectNode(target.Name, candidates)
	if err != nil {
		return fmt.Errorf("node selection for target %q failed: %w", target.Name, err)
	}

	target.URL = selected.URL
	logging.Info("Resolver", "Target %s resolved to node %s", target.Name, target.URL)
	return nil
}

// Prepare brings the target to a deployable state: registers the caller's
// identity with the node (once per node URL for the run) and creates the
// project when the target has none. The resolved project ID is stored on the
// target so the next run skips creation.
func (r *Resolver) Prepare(ctx context.Context, target *manifest.DeploymentTarget) error {
	if target.URL == "" {
		return fmt.Errorf("target %q has no node URL", target.Name)
	}

	client := r.Client(target.URL)

	if !r.registered[target.URL] {
		if err := client.Register(ctx); err != nil {
			return err
		}
		r.registered[target.URL] = true
	}

	if target.ProjectID == "" {
		network := target.Network
		if network == "" {
			network = r.cfg.Network
		}
		if network == "" {
			network = manifest.DefaultNetwork
		}
		projectID, err := client.CreateProject(ctx, target.Name, network)
		if err != nil {
			return err
		}
		target.ProjectID = projectID
	} else {
		logging.Debug("Resolver", "Target %s already has project %s, skipping creation", target.Name, target.ProjectID)
	}

	return nil
}
