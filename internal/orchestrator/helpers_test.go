package orchestrator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/agentx-labs/pkginstall/internal/config"
	"github.com/agentx-labs/pkginstall/internal/fetch"
	"github.com/agentx-labs/pkginstall/internal/installer"
	"github.com/agentx-labs/pkginstall/internal/manifest"
	"github.com/agentx-labs/pkginstall/internal/retry"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

type pkgSpec struct {
	name    string
	version string
	deps    map[string]string
	sha     string // overrides the real checksum when set
	file    string // overrides the archive file name when set
}

func (p pkgSpec) fileName() string {
	if p.file != "" {
		return p.file
	}
	short := p.name[strings.LastIndex(p.name, ".")+1:]
	return fmt.Sprintf("%s-%s.zip", short, p.version)
}

func zipBytes(t *testing.T, name, ver string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"package.json":   fmt.Sprintf(`{"name": %q, "version": %q}`, name, ver),
		"Runtime/Foo.cs": "// " + ver,
	}
	for n, content := range files {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testRegistry serves a registry document and the archives it lists.
type testRegistry struct {
	srv      *httptest.Server
	archives map[string][]byte

	mu   sync.Mutex
	hits map[string]int
}

func newTestRegistry(t *testing.T, pkgs ...pkgSpec) *testRegistry {
	t.Helper()
	tr := &testRegistry{archives: map[string][]byte{}, hits: map[string]int{}}

	for _, p := range pkgs {
		tr.archives[p.fileName()] = zipBytes(t, p.name, p.version)
	}

	tr.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr.mu.Lock()
		tr.hits[r.URL.Path]++
		tr.mu.Unlock()

		if r.URL.Path == "/index.json" {
			base := "http://" + r.Host
			packages := map[string]any{}
			for _, p := range pkgs {
				entry, ok := packages[p.name].(map[string]any)
				if !ok {
					entry = map[string]any{"versions": map[string]any{}}
					packages[p.name] = entry
				}
				sum := sha256.Sum256(tr.archives[p.fileName()])
				sha := hex.EncodeToString(sum[:])
				if p.sha != "" {
					sha = p.sha
				}
				pv := map[string]any{
					"name":      p.name,
					"version":   p.version,
					"url":       base + "/" + p.fileName(),
					"zipSHA256": sha,
				}
				if len(p.deps) > 0 {
					pv["vpmDependencies"] = p.deps
				}
				entry["versions"].(map[string]any)[p.version] = pv
			}
			json.NewEncoder(w).Encode(map[string]any{"name": "Test", "packages": packages})
			return
		}

		data, ok := tr.archives[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(tr.srv.Close)
	return tr
}

func (tr *testRegistry) url() string { return tr.srv.URL + "/index.json" }

func (tr *testRegistry) hitCount(path string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.hits[path]
}

type fixture struct {
	cfg    *config.Config
	layout workspace.Layout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("PKGINSTALL_MANAGED", "")
	cfg := config.Default()
	layout, err := cfg.Layout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{cfg: cfg, layout: layout}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	in := installer.New(f.layout, installer.WithRetryPolicy(fastPolicy))
	opts = append([]Option{WithRetryPolicy(fastPolicy)}, opts...)
	return New(f.cfg, f.layout, fetch.New(), in, opts...)
}

func (f *fixture) installedVersion(t *testing.T, name string) string {
	t.Helper()
	p, err := manifest.ProbeDir(f.layout.PackageDir(name))
	if err != nil {
		t.Fatalf("probing %s: %v", name, err)
	}
	return p.Version
}

func (f *fixture) preinstall(t *testing.T, name, ver string) {
	t.Helper()
	if err := manifest.Write(f.layout.PackageDir(name), &manifest.Manifest{Name: name, Version: ver}); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) dropZip(t *testing.T, fileName, name, ver string) string {
	t.Helper()
	if err := os.MkdirAll(f.layout.ZipPackagesDir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(f.layout.ZipPackagesDir, fileName)
	if err := os.WriteFile(path, zipBytes(t, name, ver), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
