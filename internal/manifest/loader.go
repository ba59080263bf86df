package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

// DefaultFileName is the manifest file looked up in the working directory
// when no path is given on the command line.
const DefaultFileName = "mandala.json"

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m.ServiceOrder, err = serviceKeyOrder(data)
	if err != nil {
		// Unmarshal above already proved the document is valid JSON, so a
		// token-scan failure here means a bug, not bad input.
		return nil, fmt.Errorf("failed to scan manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	logging.Debug("Manifest", "Loaded %d services, %d links, %d targets from %s",
		len(m.Services), len(m.Links), len(m.Deployments), path)
	return &m, nil
}

// Save writes the manifest back to disk. The write goes through a temp file
// in the same directory followed by a rename, so a crash cannot leave a
// half-written manifest behind.
func Save(m *Manifest, path string) error {
	if m.Version == "" {
		m.Version = SchemaVersion
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mandala-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace manifest %s: %w", path, err)
	}

	logging.Info("Manifest", "Saved manifest to %s", path)
	return nil
}

// serviceKeyOrder walks the raw JSON tokens and returns the keys of the
// top-level "services" object in the order they appear in the file.
func serviceKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Opening brace of the document.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		if key != "services" {
			// Skip this field's entire value.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		// Opening brace of the services object.
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			// "services" is not an object (e.g. null); Validate reports it.
			return nil, nil
		}

		var order []string
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if name, ok := nameTok.(string); ok {
				order = append(order, name)
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return order, nil
	}

	return nil, nil
}
