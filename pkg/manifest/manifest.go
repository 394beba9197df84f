// Package manifest reads and writes package.json dependency manifests.
//
// The core pipeline consumes the declared dependency mapping and hands back
// a merged mapping; everything filesystem- and format-shaped lives here.
package manifest

import (
	"bytes"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"

	"github.com/matzehuels/depsync/pkg/errors"
)

// Filename is the canonical manifest file name.
const Filename = "package.json"

// Manifest is a parsed package.json. Fields not modeled here are preserved
// verbatim through a load/save round trip.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`

	// extra holds every top-level field we don't model, keeping the file
	// intact when rewritten.
	extra map[string]json.RawMessage
}

// Load reads and parses the manifest at path.
//
// A missing file is reported with code MANIFEST_NOT_FOUND, malformed JSON
// with INVALID_MANIFEST. Callers that treat a missing manifest as an empty
// declared set can check the code and continue.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeManifestNotFound, err, "no %s at %s", Filename, filepath.Dir(path))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "reading %s failed", path)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s is not valid JSON", path)
	}

	m := &Manifest{extra: raw}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s has malformed fields", path)
	}
	for _, known := range []string{"name", "version", "dependencies", "devDependencies"} {
		delete(m.extra, known)
	}
	return m, nil
}

// Save writes the manifest to path with conventional two-space indentation
// and a trailing newline.
func (m *Manifest) Save(path string) error {
	out := make(map[string]any, len(m.extra)+4)
	for k, v := range m.extra {
		out[k] = v
	}
	if m.Name != "" {
		out["name"] = m.Name
	}
	if m.Version != "" {
		out["version"] = m.Version
	}
	if len(m.Dependencies) > 0 {
		out["dependencies"] = m.Dependencies
	}
	if len(m.DevDependencies) > 0 {
		out["devDependencies"] = m.DevDependencies
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "encoding %s failed", path)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Declared returns the runtime dependency mapping (name to declared version
// or range). The returned map is a copy; mutating it does not affect the
// manifest.
func (m *Manifest) Declared() map[string]string {
	out := make(map[string]string, len(m.Dependencies))
	maps.Copy(out, m.Dependencies)
	return out
}

// Merge applies resolved versions to the dependency mapping. Each entry is
// stored as prefix+version (e.g. "^1.2.3"). Existing entries are only
// overwritten when overwrite is true; new names are always added.
func (m *Manifest) Merge(resolved map[string]string, prefix string, overwrite bool) {
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string, len(resolved))
	}
	for name, version := range resolved {
		if _, exists := m.Dependencies[name]; exists && !overwrite {
			continue
		}
		m.Dependencies[name] = prefix + version
	}
}
