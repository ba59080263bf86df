package node

// GPUInfo describes the GPU inventory a node advertises.
type GPUInfo struct {
	Enabled   bool   `json:"enabled"`
	Type      string `json:"type,omitempty"`
	Available int    `json:"available,omitempty"`
}

// NodeCapabilities is the probe result from a node's public info endpoint.
// It is used only for validation gating and is never persisted. Missing
// fields on the wire default to empty/disabled rather than failing the probe.
type NodeCapabilities struct {
	URL               string            `json:"url"`
	GPU               GPUInfo           `json:"gpu"`
	Pricing           map[string]string `json:"pricing,omitempty"`
	SupportedRuntimes []string          `json:"supportedRuntimes,omitempty"`
	SchemaVersions    []string          `json:"schemaVersions,omitempty"`
}

// SupportsSchema reports whether the node declared support for the given
// manifest schema version. A node that advertises no versions at all is
// treated as supporting everything; old nodes predate the field.
func (c *NodeCapabilities) SupportsSchema(version string) bool {
	if len(c.SchemaVersions) == 0 {
		return true
	}
	for _, v := range c.SchemaVersions {
		if v == version {
			return true
		}
	}
	return false
}

// SupportsRuntime reports whether the node can execute the given runtime.
// As with schema versions, an empty list means the node did not say.
func (c *NodeCapabilities) SupportsRuntime(runtime string) bool {
	if len(c.SupportedRuntimes) == 0 {
		return true
	}
	for _, r := range c.SupportedRuntimes {
		if r == runtime {
			return true
		}
	}
	return false
}

// DeploySlot is the node's answer to a deploy request: where to upload the
// archive and the identifier the node assigned to the deployment.
type DeploySlot struct {
	UploadURL    string `json:"url"`
	DeploymentID string `json:"deploymentId"`
}

// ProjectStatus is the polled status portion of a project info response.
type ProjectStatus struct {
	Online bool `json:"online"`
}

// ProjectInfo is a project info response. Fields beyond Status exist on the
// wire (billing, domains) but the orchestrator only gates on readiness.
type ProjectInfo struct {
	ProjectID string        `json:"projectId,omitempty"`
	Status    ProjectStatus `json:"status"`
}

// ServiceLinkRecord is the metadata stored on a node when a link is injected,
// so deployed environments can be introspected later.
type ServiceLinkRecord struct {
	EnvVar string `json:"envVar"`
	URL    string `json:"url"`
}
