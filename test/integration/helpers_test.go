//go:build integration

package integration_test

import (
	"bytes"
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
	"go.uber.org/zap"

	"github.com/agentx-labs/pkginstall/internal/branding"
	"github.com/agentx-labs/pkginstall/internal/config"
	"github.com/agentx-labs/pkginstall/internal/fetch"
	"github.com/agentx-labs/pkginstall/internal/i18n"
	"github.com/agentx-labs/pkginstall/internal/installer"
	"github.com/agentx-labs/pkginstall/internal/manifest"
	"github.com/agentx-labs/pkginstall/internal/orchestrator"
	"github.com/agentx-labs/pkginstall/internal/retry"
)

// testEnv holds an isolated project and the registry it talks to.
type testEnv struct {
	ProjectDir string
	CacheDir   string
	Registry   *fakeRegistry
}

// setupTestEnv creates isolated temp directories and clears the environment
// overrides so every run is sandboxed.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(branding.EnvVar("MANAGED"), "")

	return &testEnv{
		ProjectDir: t.TempDir(),
		CacheDir:   t.TempDir(),
		Registry:   newFakeRegistry(t),
	}
}

// writeConfig writes the YAML config file to the project root, filling in
// the cache path and registry URL.
func (e *testEnv) writeConfig(t *testing.T, body string) {
	t.Helper()
	content := fmt.Sprintf("registry_url: %s\npaths:\n  cache: %s\n%s",
		e.Registry.URL(), filepath.ToSlash(e.CacheDir), body)
	writeFile(t, config.FilePath(e.ProjectDir), content)
}

// run loads the config the way the CLI does and performs one pass.
func (e *testEnv) run(t *testing.T, logger *zap.Logger) *orchestrator.Report {
	t.Helper()

	cfg, err := config.Load(config.FilePath(e.ProjectDir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	layout, err := cfg.Layout(e.ProjectDir)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	tr, err := i18n.Load(layout.LanguageDir, cfg.Language)
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}
	o := orchestrator.New(cfg, layout,
		fetch.New(fetch.WithLogger(logger)),
		installer.New(layout, installer.WithLogger(logger), installer.WithTranslator(tr), installer.WithRetryPolicy(policy)),
		orchestrator.WithLogger(logger),
		orchestrator.WithTranslator(tr),
		orchestrator.WithRetryPolicy(policy),
	)
	report, err := o.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func (e *testEnv) packageDir(name string) string {
	return filepath.Join(e.ProjectDir, "Packages", name)
}

func (e *testEnv) installedVersion(t *testing.T, name string) string {
	t.Helper()
	probe, err := manifest.ProbeDir(e.packageDir(name))
	if err != nil {
		t.Fatalf("ProbeDir: %v", err)
	}
	return probe.Version
}

func findPackage(t *testing.T, r *orchestrator.Report, name string) orchestrator.PackageReport {
	t.Helper()
	for _, p := range r.Packages {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("package %s not in report: %+v", name, r.Packages)
	return orchestrator.PackageReport{}
}

// fakeRegistry serves a registry document whose contents can change
// between runs.
type fakeRegistry struct {
	srv *httptest.Server

	mu       sync.Mutex
	versions map[string]map[string][]byte // name -> version -> archive
	hits     map[string]int
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	fr := &fakeRegistry{versions: map[string]map[string][]byte{}, hits: map[string]int{}}
	fr.srv = httptest.NewServer(http.HandlerFunc(fr.serve))
	t.Cleanup(fr.srv.Close)
	return fr
}

func (fr *fakeRegistry) URL() string { return fr.srv.URL + "/index.json" }

// publish adds a version to the registry.
func (fr *fakeRegistry) publish(t *testing.T, name, ver string) {
	t.Helper()
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.versions[name] == nil {
		fr.versions[name] = map[string][]byte{}
	}
	fr.versions[name][ver] = archiveBytes(t, name, ver)
}

func (fr *fakeRegistry) downloads(name, ver string) int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.hits[archivePath(name, ver)]
}

func archivePath(name, ver string) string {
	return "/" + name + "/" + ver + ".zip"
}

func (fr *fakeRegistry) serve(w http.ResponseWriter, r *http.Request) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.hits[r.URL.Path]++

	if r.URL.Path == "/index.json" {
		packages := map[string]any{}
		for name, versions := range fr.versions {
			vs := map[string]any{}
			for ver := range versions {
				vs[ver] = map[string]any{
					"name":    name,
					"version": ver,
					"url":     "http://" + r.Host + archivePath(name, ver),
				}
			}
			packages[name] = map[string]any{"versions": vs}
		}
		json.NewEncoder(w).Encode(map[string]any{"name": "Integration", "packages": packages})
		return
	}

	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".zip"), "/")
	if len(parts) == 2 {
		if data, ok := fr.versions[parts[0]][parts[1]]; ok {
			w.Write(data)
			return
		}
	}
	http.NotFound(w, r)
}

func archiveBytes(t *testing.T, name, ver string) []byte {
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
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeFile creates a file with the given content, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the path does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}

// assertFileNotExists fails the test if the path exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file to NOT exist: %s", path)
	}
}

// assertFileContains fails the test if the file does not contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q\ncontent:\n%s", path, substr, string(data))
	}
}
