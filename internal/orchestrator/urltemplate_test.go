package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mandala-Network/Mandala-CLI/internal/config"
)

func TestServiceURLDefaultTemplate(t *testing.T) {
	b, err := NewURLBuilder(config.DefaultServiceURLTemplate)
	require.NoError(t, err)

	url, err := b.ServiceURL("proj-42", "api", "node.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://proj-42.node.example.com", url)
}

func TestServiceURLCustomTemplateWithSprig(t *testing.T) {
	b, err := NewURLBuilder(`https://{{ .ServiceName | lower }}-{{ .ProjectID }}.{{ .NodeDomain }}`)
	require.NoError(t, err)

	url, err := b.ServiceURL("p1", "API", "node.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://api-p1.node.example.com", url)
}

func TestNewURLBuilderRejectsBadTemplate(t *testing.T) {
	_, err := NewURLBuilder("https://{{ .ProjectID")
	assert.Error(t, err)
}
