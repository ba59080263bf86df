package manifest

// SchemaVersion is the manifest file format version this CLI reads and writes.
const SchemaVersion = "2.0"

// DefaultNetwork is used when a deployment target does not declare a network.
const DefaultNetwork = "mainnet"

// AgentKind categorises the deployable unit.
type AgentKind string

const (
	// AgentKindAssistant is the predefined conversational agent template.
	AgentKindAssistant AgentKind = "assistant"
	// AgentKindWorker is the predefined background worker template.
	AgentKindWorker AgentKind = "worker"
	// AgentKindCustom is a user-supplied build context.
	AgentKindCustom AgentKind = "custom"
)

// Runtime identifies how the node executes the service.
type Runtime string

const (
	RuntimeNode      Runtime = "node"
	RuntimePython    Runtime = "python"
	RuntimeContainer Runtime = "container"
)

// ResourceRequest describes the compute resources a service asks the node for.
// CPU and Memory use the node's string conventions ("0.5", "512Mi"); GPU is a
// device count and zero means none.
type ResourceRequest struct {
	CPU    string `json:"cpu,omitempty"`
	Memory string `json:"memory,omitempty"`
	GPU    int    `json:"gpu,omitempty"`
}

// ServiceDefinition is one named deployable unit within a manifest.
// The name lives in the owning Manifest.Services map, not on the struct.
type ServiceDefinition struct {
	Kind            AgentKind         `json:"kind"`
	Runtime         Runtime           `json:"runtime"`
	Resources       ResourceRequest   `json:"resources,omitempty"`
	Ports           []int             `json:"ports,omitempty"`
	HealthCheckPath string            `json:"healthCheckPath,omitempty"`
	BuildContext    string            `json:"buildContext,omitempty"`
	Env             map[string]string `json:"env,omitempty"`

	// Provider references a DeploymentTarget by name. When empty the first
	// declared target is used.
	Provider string `json:"provider,omitempty"`
}

// ServiceLink declares that service From must receive the reachable URL of
// service To in its environment under EnvVar once To is deployed.
type ServiceLink struct {
	From   string `json:"from"`
	To     string `json:"to"`
	EnvVar string `json:"envVar"`
}

// CapabilityRequirement declares what a deployment target needs from a node.
type CapabilityRequirement struct {
	GPU     bool   `json:"gpu,omitempty"`
	GPUType string `json:"gpuType,omitempty"`
}

// DeploymentTarget is a named remote location: a node URL plus the project on
// it that hosts the services. URL and ProjectID may be empty in an authored
// manifest; the orchestrator fills them in (discovery, project creation) and
// the result is persisted so re-runs are incremental.
type DeploymentTarget struct {
	Name      string                 `json:"name"`
	URL       string                 `json:"url,omitempty"`
	ProjectID string                 `json:"projectId,omitempty"`
	Network   string                 `json:"network,omitempty"`
	Requires  *CapabilityRequirement `json:"requires,omitempty"`
}

// NetworkOrDefault returns the declared network, defaulting to mainnet.
func (t *DeploymentTarget) NetworkOrDefault() string {
	if t.Network == "" {
		return DefaultNetwork
	}
	return t.Network
}

// Manifest is the top-level aggregate persisted as JSON. It is owned
// exclusively by the orchestrator during a deployment run; stages mutate it
// in place (resolved target URLs, project IDs, recorded service URLs) and it
// is written back at the end.
type Manifest struct {
	Version     string                        `json:"version"`
	Services    map[string]*ServiceDefinition `json:"services"`
	Links       []ServiceLink                 `json:"links,omitempty"`
	Env         map[string]string             `json:"env,omitempty"`
	Deployments []*DeploymentTarget           `json:"deployments,omitempty"`

	// ServiceOrder preserves the order service names appear in the manifest
	// file. encoding/json does not keep map key order, and the scheduler
	// breaks ties by declaration order, so Load reconstructs it separately.
	ServiceOrder []string `json:"-"`
}

// Target returns the deployment target with the given name, or nil.
func (m *Manifest) Target(name string) *DeploymentTarget {
	for _, t := range m.Deployments {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// ServiceNames returns the service names in declaration order. Services added
// after Load (none today) would be appended in map-iteration order.
func (m *Manifest) ServiceNames() []string {
	names := make([]string, 0, len(m.Services))
	seen := make(map[string]bool, len(m.Services))
	for _, name := range m.ServiceOrder {
		if _, ok := m.Services[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	for name := range m.Services {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// MergedEnv combines the manifest-wide environment with a service's own
// overrides, the service winning on conflicts.
func (m *Manifest) MergedEnv(serviceName string) map[string]string {
	merged := make(map[string]string, len(m.Env))
	for k, v := range m.Env {
		merged[k] = v
	}
	if svc, ok := m.Services[serviceName]; ok {
		for k, v := range svc.Env {
			merged[k] = v
		}
	}
	return merged
}

// RecordTarget adds a resolved target to the deployments list unless an entry
// with the same URL and project ID already exists.
func (m *Manifest) RecordTarget(target *DeploymentTarget) {
	for _, t := range m.Deployments {
		if t.URL == target.URL && t.ProjectID == target.ProjectID {
			return
		}
	}
	m.Deployments = append(m.Deployments, target)
}
