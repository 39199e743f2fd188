package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Document is a parsed registry listing.
type Document struct {
	Name     string                   `json:"name"`
	Author   string                   `json:"author"`
	ID       string                   `json:"id"`
	URL      string                   `json:"url"`
	Packages map[string]*PackageEntry `json:"packages"`
}

// Lookup returns the entry for name. Names are matched exactly.
func (d *Document) Lookup(name string) (*PackageEntry, error) {
	if d != nil {
		if entry, ok := d.Packages[name]; ok && entry != nil {
			return entry, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// Names returns the package names in the document, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Packages))
	for name := range d.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackageEntry holds every published version of one package, in the order
// the registry listed them.
type PackageEntry struct {
	keys     []string
	versions map[string]*PackageVersion
}

// NewPackageEntry builds an entry from versions keyed by their Version field.
func NewPackageEntry(versions ...*PackageVersion) *PackageEntry {
	e := &PackageEntry{}
	for _, v := range versions {
		e.add(v.Version, v)
	}
	return e
}

func (e *PackageEntry) add(key string, v *PackageVersion) {
	if e.versions == nil {
		e.versions = make(map[string]*PackageVersion)
	}
	if _, exists := e.versions[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.versions[key] = v
}

// Len returns the number of versions in the entry.
func (e *PackageEntry) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Keys returns the version keys in listing order.
func (e *PackageEntry) Keys() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.keys...)
}

// Versions returns the versions in listing order.
func (e *PackageEntry) Versions() []*PackageVersion {
	if e == nil {
		return nil
	}
	out := make([]*PackageVersion, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, e.versions[k])
	}
	return out
}

// Get returns the version stored under key.
func (e *PackageEntry) Get(key string) (*PackageVersion, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.versions[key]
	return v, ok
}

// UnmarshalJSON accepts both the {"versions": {...}} form and a bare object
// keyed by version string, preserving key order.
func (e *PackageEntry) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	body := data
	if raw, ok := probe["versions"]; ok && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		body = raw
	}

	*e = PackageEntry{}
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in versions object", tok)
		}
		var v PackageVersion
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decoding version %s: %w", key, err)
		}
		e.add(key, &v)
	}
	return nil
}

// MarshalJSON writes the entry in the {"versions": {...}} form, in listing order.
func (e *PackageEntry) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteString(`{"versions":{`)
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.versions[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// PackageVersion is one published version of a package.
type PackageVersion struct {
	Name             string            `json:"name"`
	DisplayName      string            `json:"displayName"`
	Version          string            `json:"version"`
	Unity            string            `json:"unity,omitempty"`
	Description      string            `json:"description,omitempty"`
	DocumentationURL string            `json:"documentationUrl,omitempty"`
	ChangelogURL     string            `json:"changelogUrl,omitempty"`
	LicensesURL      string            `json:"licensesUrl,omitempty"`
	License          string            `json:"license,omitempty"`
	Keywords         []string          `json:"keywords,omitempty"`
	Dependencies     map[string]string `json:"vpmDependencies,omitempty"`
	Samples          []Sample          `json:"samples,omitempty"`
	Author           Author            `json:"author"`
	ZipSHA256        string            `json:"zipSHA256,omitempty"`
	URL              string            `json:"url"`
	Repo             string            `json:"repo,omitempty"`
	LegacyFolders    map[string]string `json:"legacyFolders,omitempty"`
}

// Sample describes an optional sample bundled with a package.
type Sample struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

// Author identifies a package author.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// UnmarshalJSON also accepts a bare string, taken as the author name.
func (a *Author) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Author{Name: name}
		return nil
	}
	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Author(p)
	return nil
}
