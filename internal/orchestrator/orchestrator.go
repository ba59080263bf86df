package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/Mandala-Network/Mandala-CLI/internal/cli"
	"github.com/Mandala-Network/Mandala-CLI/internal/config"
	"github.com/Mandala-Network/Mandala-CLI/internal/dependency"
	"github.com/Mandala-Network/Mandala-CLI/internal/manifest"
	"github.com/Mandala-Network/Mandala-CLI/internal/node"
	"github.com/Mandala-Network/Mandala-CLI/internal/packager"
	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

// ServiceResult is the per-service outcome included in the final report.
type ServiceResult struct {
	Service  string
	Node     string
	URL      string
	Deployed bool
	Ready    bool
}

// LinkResult is the per-link outcome included in the final report.
type LinkResult struct {
	From     string
	To       string
	EnvVar   string
	URL      string
	Injected bool
}

// Report aggregates what the run actually did. The tables rendered from it
// reflect true per-service state, not an optimistic summary.
type Report struct {
	Services []ServiceResult
	Links    []LinkResult
}

// Options configures an orchestrator run.
type Options struct {
	// ManifestPath is where the manifest is persisted after the run.
	ManifestPath string
	// Selector resolves GPU-node discovery results to a single node.
	Selector NodeSelector
	// Out receives the report tables; defaults to stdout.
	Out io.Writer
	// ShowProgress enables the readiness spinner. Off for automation/tests.
	ShowProgress bool
}

// Orchestrator drives a multi-service deployment run through its stages:
// Validating, Preparing, Deploying each service in dependency order, Linking,
// Reporting. A run is strictly sequential; the manifest is the only shared
// mutable state and is persisted at the end.
type Orchestrator struct {
	cfg      config.Config
	man      *manifest.Manifest
	opts     Options
	resolver *Resolver
	urls     *URLBuilder

	// serviceURLs records the derived reachable URL of every service that
	// deployed, for link injection.
	serviceURLs map[string]string
	// serviceClients remembers which node client deployed each service.
	serviceClients map[string]*node.Client

	report Report
}

// New creates an orchestrator for one deployment run over the given manifest.
func New(cfg config.Config, man *manifest.Manifest, opts Options) (*Orchestrator, error) {
	if opts.Selector == nil {
		opts.Selector = AutoSelector{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	tmplText := cfg.ServiceURLTemplate
	if tmplText == "" {
		tmplText = config.DefaultServiceURLTemplate
	}
	urls, err := NewURLBuilder(tmplText)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:            cfg,
		man:            man,
		opts:           opts,
		resolver:       NewResolver(cfg, opts.Selector),
		urls:           urls,
		serviceURLs:    make(map[string]string),
		serviceClients: make(map[string]*node.Client),
	}, nil
}

// Deploy runs the full sequence. Validation and preparation failures abort
// before anything is deployed. A packaging or upload failure mid-run aborts
// the remaining services but leaves already-deployed ones running; the report
// and the manifest are still written so the partial state is visible and a
// re-run is incremental.
func (o *Orchestrator) Deploy(ctx context.Context) (*Report, error) {
	if err := o.validate(ctx); err != nil {
		return nil, err
	}
	if err := o.prepare(ctx); err != nil {
		return nil, err
	}

	order, acyclic := dependency.Order(o.man.ServiceNames(), o.man.Links)
	if !acyclic {
		logging.Warn("Orchestrator", "Service links form a cycle; deploying in declared order and linking afterwards")
	}
	logging.Info("Orchestrator", "Deployment order: %v", order)

	deployErr := o.deployServices(ctx, order)
	o.link(ctx)

	o.renderReport()
	if err := manifest.Save(o.man, o.opts.ManifestPath); err != nil {
		logging.Error("Orchestrator", err, "Failed to persist manifest after run")
		if deployErr == nil {
			deployErr = err
		}
	}

	if deployErr != nil {
		return &o.report, deployErr
	}
	return &o.report, nil
}

// validate probes every declared target and rejects the whole run if any
// target is unreachable, lacks the manifest schema version, or lacks a
// required GPU. All-or-nothing: later stages assume every target is usable.
func (o *Orchestrator) validate(ctx context.Context) error {
	for _, target := range o.man.Deployments {
		if err := o.resolver.EnsureURL(ctx, target); err != nil {
			return &cli.ValidationError{Stage: "validation", Target: target.Name, Reason: err}
		}

		caps, err := node.Probe(ctx, target.URL)
		if err != nil {
			if connErr := cli.ClassifyConnectionError(err, target.URL); connErr != nil {
				err = connErr
			}
			return &cli.ValidationError{Stage: "validation", Target: target.Name, Reason: err}
		}

		if !caps.SupportsSchema(manifest.SchemaVersion) {
			return &cli.ValidationError{
				Stage:  "validation",
				Target: target.Name,
				Reason: fmt.Errorf("node %s does not support manifest schema %s", target.URL, manifest.SchemaVersion),
			}
		}

		if req := target.Requires; req != nil && req.GPU {
			if !caps.GPU.Enabled {
				return &cli.ValidationError{
					Stage:  "validation",
					Target: target.Name,
					Reason: fmt.Errorf("node %s has no GPU but target requires one", target.URL),
				}
			}
			if req.GPUType != "" && caps.GPU.Type != req.GPUType {
				return &cli.ValidationError{
					Stage:  "validation",
					Target: target.Name,
					Reason: fmt.Errorf("node %s offers GPU type %q, target requires %q", target.URL, caps.GPU.Type, req.GPUType),
				}
			}
		}

		logging.Info("Orchestrator", "Target %s validated against %s", target.Name, target.URL)
	}
	return nil
}

// prepare registers identity and ensures a project exists on every target.
// A target that cannot host a project cannot receive any service, so a
// failure here aborts the run before anything is deployed.
func (o *Orchestrator) prepare(ctx context.Context) error {
	for _, target := range o.man.Deployments {
		if err := o.resolver.Prepare(ctx, target); err != nil {
			return &cli.ValidationError{Stage: "preparation", Target: target.Name, Reason: err}
		}
	}
	return nil
}

// deployServices deploys each service in order. The first hard failure stops
// the loop; remaining services are recorded as not deployed.
func (o *Orchestrator) deployServices(ctx context.Context, order []string) error {
	graph := dependency.NewGraph(o.man.ServiceNames(), o.man.Links)

	for i, name := range order {
		if err := o.deployService(ctx, name); err != nil {
			if dependents := graph.Dependents(name); len(dependents) > 0 {
				logging.Warn("Orchestrator", "Services linked to %s will not receive its URL: %v", name, dependents)
			}
			// Record the rest as skipped so the report tells the truth.
			for _, skipped := range order[i:] {
				if skipped == name {
					continue
				}
				o.report.Services = append(o.report.Services, ServiceResult{Service: skipped})
			}
			return fmt.Errorf("deployment of service %q failed: %w", name, err)
		}
	}
	return nil
}

func (o *Orchestrator) deployService(ctx context.Context, name string) error {
	svc := o.man.Services[name]
	result := ServiceResult{Service: name}

	target, err := o.resolver.Resolve(o.man, name)
	if err != nil {
		o.report.Services = append(o.report.Services, result)
		return err
	}
	result.Node = target.URL

	// Record the resolved target back into the persisted list (dedup by
	// URL+projectID) so a hand-edited manifest converges.
	o.man.RecordTarget(target)

	buildContext := svc.BuildContext
	if buildContext == "" {
		buildContext = "."
	}
	archive, err := packager.Pack(buildContext)
	if err != nil {
		o.report.Services = append(o.report.Services, result)
		return err
	}
	defer os.Remove(archive)

	client := o.resolver.Client(target.URL)
	slot, err := client.RequestDeploy(ctx, target.ProjectID)
	if err != nil {
		o.report.Services = append(o.report.Services, result)
		return err
	}
	logging.Info("Orchestrator", "Deploying %s to %s as deployment %s", name, target.URL, slot.DeploymentID)

	if err := client.Upload(ctx, slot.UploadURL, name, archive); err != nil {
		o.report.Services = append(o.report.Services, result)
		return err
	}
	result.Deployed = true

	// From here on the service is committed; failures degrade to warnings.
	if err := client.UpdateSettings(ctx, target.ProjectID, o.man.MergedEnv(name)); err != nil {
		logging.Warn("Orchestrator", "Failed to push environment for %s: %v", name, err)
	}

	result.Ready = o.waitReady(ctx, client, target.ProjectID, name)
	if !result.Ready {
		logging.Warn("Orchestrator", "Service %s did not become ready in time; continuing", name)
	}

	serviceURL, err := o.urls.ServiceURL(target.ProjectID, name, client.Domain())
	if err != nil {
		logging.Warn("Orchestrator", "Could not derive URL for %s: %v", name, err)
	} else {
		o.serviceURLs[name] = serviceURL
		result.URL = serviceURL
	}
	o.serviceClients[name] = client

	o.report.Services = append(o.report.Services, result)
	return nil
}

func (o *Orchestrator) waitReady(ctx context.Context, client *node.Client, projectID, name string) bool {
	var s *spinner.Spinner
	if o.opts.ShowProgress {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" waiting for %s to come online...", name)
		s.Start()
		defer s.Stop()
	}

	online, err := client.WaitOnline(ctx, projectID)
	if err != nil {
		logging.Warn("Orchestrator", "Readiness wait for %s interrupted: %v", name, err)
		return false
	}
	return online
}

// link injects every resolvable link: pushes the target URL into the
// consumer's environment, stores the link metadata on the consumer's node
// and restarts the consumer so the variable takes effect. Links whose target
// never got a URL are reported and skipped; already-deployed services stay up.
func (o *Orchestrator) link(ctx context.Context) {
	// Group injected env vars per consumer so each consumer is restarted
	// once. Each pending link remembers its report entry so Injected is only
	// set after the push actually succeeds.
	type pendingLink struct {
		record      node.ServiceLinkRecord
		reportIndex int
	}
	pending := make(map[string][]pendingLink)

	for _, l := range o.man.Links {
		result := LinkResult{From: l.From, To: l.To, EnvVar: l.EnvVar}

		url, ok := o.serviceURLs[l.To]
		if !ok {
			logging.Warn("Orchestrator", "Link %s -> %s skipped: %s has no recorded URL", l.From, l.To, l.To)
			o.report.Links = append(o.report.Links, result)
			continue
		}
		if _, ok := o.serviceClients[l.From]; !ok {
			logging.Warn("Orchestrator", "Link %s -> %s skipped: %s was not deployed", l.From, l.To, l.From)
			o.report.Links = append(o.report.Links, result)
			continue
		}

		result.URL = url
		o.report.Links = append(o.report.Links, result)
		pending[l.From] = append(pending[l.From], pendingLink{
			record:      node.ServiceLinkRecord{EnvVar: l.EnvVar, URL: url},
			reportIndex: len(o.report.Links) - 1,
		})
	}

	for from, links := range pending {
		target, err := o.resolver.Resolve(o.man, from)
		if err != nil {
			logging.Warn("Orchestrator", "Link injection for %s skipped: %v", from, err)
			continue
		}
		client := o.serviceClients[from]

		records := make([]node.ServiceLinkRecord, 0, len(links))
		env := make(map[string]string, len(links))
		for _, pl := range links {
			records = append(records, pl.record)
			env[pl.record.EnvVar] = pl.record.URL
		}

		// Best-effort from here: the services are already deployed.
		if err := client.UpdateSettings(ctx, target.ProjectID, env); err != nil {
			logging.Warn("Orchestrator", "Failed to inject link environment for %s: %v", from, err)
			continue
		}
		for _, pl := range links {
			o.report.Links[pl.reportIndex].Injected = true
		}
		if err := client.StoreServiceLinks(ctx, target.ProjectID, records); err != nil {
			logging.Warn("Orchestrator", "Failed to store link metadata for %s: %v", from, err)
		}
		if err := client.Restart(ctx, target.ProjectID); err != nil {
			logging.Warn("Orchestrator", "Failed to restart %s after linking: %v", from, err)
		}
		logging.Info("Orchestrator", "Injected %d link(s) into %s", len(records), from)
	}
}
