package orchestrator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// URLBuilder derives a deployed service's externally reachable URL from the
// project and node it landed on. The derivation is a configured convention,
// not a protocol guarantee: nodes conventionally route
// https://<projectID>.<node domain>, but an operator can override the
// template when a node routes differently.
type URLBuilder struct {
	tmpl *template.Template
}

type serviceURLData struct {
	ProjectID   string
	ServiceName string
	NodeDomain  string
}

// NewURLBuilder parses the service URL template. Sprig functions are
// available, so templates can do things like lower-casing a service name.
func NewURLBuilder(tmplText string) (*URLBuilder, error) {
	tmpl, err := template.New("serviceURL").Funcs(sprig.TxtFuncMap()).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL template %q: %w", tmplText, err)
	}
	return &URLBuilder{tmpl: tmpl}, nil
}

// ServiceURL renders the URL for a service deployed into the given project.
func (b *URLBuilder) ServiceURL(projectID, serviceName, nodeDomain string) (string, error) {
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, serviceURLData{
		ProjectID:   projectID,
		ServiceName: serviceName,
		NodeDomain:  nodeDomain,
	})
	if err != nil {
		return "", fmt.Errorf("failed to derive service URL: %w", err)
	}
	return sb.String(), nil
}
