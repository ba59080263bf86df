package packager

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiveEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var content []byte
		if hdr.Typeflag == tar.TypeReg {
			content, err = io.ReadAll(tr)
			require.NoError(t, err)
		}
		entries[hdr.Name] = string(content)
	}
	return entries
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestPackExcludesDevArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.js", "console.log('hi')")
	writeFile(t, root, "src/app.js", "app")
	writeFile(t, root, "node_modules/lodash/index.js", "module")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, ".env", "SECRET=1")
	writeFile(t, root, ".env.production", "SECRET=2")
	writeFile(t, root, "agent-old.tgz", "old archive")
	writeFile(t, root, "backup.tgz", "another archive")
	writeFile(t, root, "dist/bundle.js", "bundle")

	archive, err := Pack(root)
	require.NoError(t, err)
	defer os.Remove(archive)

	entries := archiveEntries(t, archive)
	assert.Contains(t, entries, "index.js")
	assert.Contains(t, entries, "src/app.js")
	assert.Equal(t, "app", entries["src/app.js"])

	for name := range entries {
		assert.NotContains(t, name, "node_modules")
		assert.NotContains(t, name, ".git")
		assert.NotContains(t, name, ".env")
		assert.NotContains(t, name, ".tgz")
		assert.NotContains(t, name, "dist")
	}
}

func TestPackIncludesEverythingNotExcluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "weird.bin", "binary")
	writeFile(t, root, "deep/nested/dir/file.txt", "txt")

	archive, err := Pack(root)
	require.NoError(t, err)
	defer os.Remove(archive)

	entries := archiveEntries(t, archive)
	assert.Contains(t, entries, "weird.bin")
	assert.Contains(t, entries, "deep/nested/dir/file.txt")
}

func TestPackRejectsMissingContext(t *testing.T) {
	_, err := Pack(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestPackRejectsFileContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")
	_, err := Pack(filepath.Join(root, "file.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		rel      string
		excluded bool
	}{
		{"node_modules", true},
		{"node_modules/pkg/index.js", true},
		{"src/node_modules/x.js", false}, // literal pattern is root-relative
		{".git/config", true},
		{".env", true},
		{".env.local", true},
		{"config/.env.staging", true}, // wildcard patterns match any segment
		{"agent-abc123.tgz", true},
		{"deploy-1.tar", true},
		{"vendor/archive.tgz", true},
		{"src/index.js", false},
		{"environment.md", false},
		{"builder/main.go", false}, // "build" must not prefix-match
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.excluded, Excluded(tt.rel, DefaultExcludes))
		})
	}
}
