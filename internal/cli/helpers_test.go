package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/agentx-labs/pkginstall/internal/branding"
)

// executeCmd runs the root command with args against a fresh set of flag
// values and returns what it wrote to stdout.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagProject, flagConfig, flagVerbose = "", "", false
	installForce, installName = false, ""
	initForce, initRegistry = false, ""
	listJSON, resolveJSON, resolveRegistry = false, false, ""
	runNoProgress = false
	versionShort, versionJSON = false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	if testing.Verbose() && stderr.Len() > 0 {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

// newProject returns an isolated project root.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv(branding.EnvVar("MANAGED"), "")
	t.Setenv(branding.EnvVar("CONFIG"), "")
	return t.TempDir()
}

func writeArchive(t *testing.T, dir, fileName, name, ver string) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
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
	return path
}
