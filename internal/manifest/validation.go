package manifest

import "fmt"

// Validate checks structural consistency of the manifest. It reports the
// first problem found, naming the offending service, link or target so the
// user can fix the file without guessing.
func (m *Manifest) Validate() error {
	if m.Version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %q (expected %q)", m.Version, SchemaVersion)
	}

	if len(m.Services) == 0 {
		return fmt.Errorf("manifest declares no services")
	}

	targetNames := make(map[string]bool, len(m.Deployments))
	for _, t := range m.Deployments {
		if t.Name == "" {
			return fmt.Errorf("deployment target with empty name")
		}
		if targetNames[t.Name] {
			return fmt.Errorf("duplicate deployment target %q", t.Name)
		}
		targetNames[t.Name] = true
	}

	for name, svc := range m.Services {
		if svc == nil {
			return fmt.Errorf("service %q has no definition", name)
		}
		switch svc.Kind {
		case AgentKindAssistant, AgentKindWorker, AgentKindCustom:
		default:
			return fmt.Errorf("service %q has unknown kind %q", name, svc.Kind)
		}
		switch svc.Runtime {
		case RuntimeNode, RuntimePython, RuntimeContainer:
		default:
			return fmt.Errorf("service %q has unknown runtime %q", name, svc.Runtime)
		}
		if svc.Provider != "" && !targetNames[svc.Provider] {
			return fmt.Errorf("service %q references undeclared provider %q", name, svc.Provider)
		}
		for _, port := range svc.Ports {
			if port <= 0 || port > 65535 {
				return fmt.Errorf("service %q declares invalid port %d", name, port)
			}
		}
	}

	for _, link := range m.Links {
		if link.EnvVar == "" {
			return fmt.Errorf("link %s -> %s has no envVar", link.From, link.To)
		}
		if _, ok := m.Services[link.From]; !ok {
			return fmt.Errorf("link references unknown service %q", link.From)
		}
		if _, ok := m.Services[link.To]; !ok {
			return fmt.Errorf("link references unknown service %q", link.To)
		}
	}

	return nil
}
