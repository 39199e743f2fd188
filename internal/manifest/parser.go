package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoManifest is returned when a package directory has no package.json.
var ErrNoManifest = errors.New("no package manifest")

// Read parses dir/package.json. Files that fail schema validation (for
// example a missing version) are rejected.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid manifest %s: %s", path, result.String())
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.Version = strings.TrimSpace(m.Version)
	return &m, nil
}

// ProbeDir reports the version installed at dir. A missing directory or
// manifest is not an error; it yields a Probe with Installed false.
func ProbeDir(dir string) (Probe, error) {
	p := Probe{Dir: dir}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return p, fmt.Errorf("%s is not a directory", dir)
	}

	m, err := Read(dir)
	if errors.Is(err, ErrNoManifest) {
		return p, nil
	}
	if err != nil {
		return p, err
	}

	p.Installed = true
	p.Version = m.Version
	return p, nil
}

// Write stores m as dir/package.json.
func Write(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}
