package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/agentx-labs/pkginstall/internal/platform"
	"github.com/agentx-labs/pkginstall/internal/retry"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

var errLocked = errors.New("the process cannot access the file because it is being used by another process")

var fastPolicy = retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

func manifestJSON(name, ver string) string {
	return fmt.Sprintf(`{"name": %q, "version": %q, "displayName": "Test"}`, name, ver)
}

// writeArchive builds a zip under dir with the given entries.
func writeArchive(t *testing.T, dir, fileName string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
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
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeOrderedArchive is writeArchive with a fixed entry order.
func writeOrderedArchive(t *testing.T, dir, fileName string, entries [][2]string) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(e[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func packageArchive(t *testing.T, dir, fileName, name, ver string) string {
	t.Helper()
	return writeArchive(t, dir, fileName, map[string]string{
		"package.json":   manifestJSON(name, ver),
		"Runtime/Foo.cs": "// " + ver,
	})
}

func newLayout(t *testing.T) workspace.Layout {
	t.Helper()
	t.Setenv("PKGINSTALL_MANAGED", "")
	l, err := workspace.New(t.TempDir(), workspace.Dirs{})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func readVersion(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "Runtime", "Foo.cs"))
	if err != nil {
		t.Fatalf("reading installed file: %v", err)
	}
	return strings.TrimPrefix(string(data), "// ")
}

func assertAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("%s should not exist (err=%v)", path, err)
	}
}

// lockedFS simulates another process holding paths open and a cache root
// on another volume.
type lockedFS struct {
	OSFS

	mu           sync.Mutex
	moveLocked   func(src, dst string) bool
	renameLocked func(src, dst string) bool
	crossDevice  func(src, dst string) bool
	rmLocked     func(path string) bool
	// move replaces the real move when set.
	move        func(src, dst string) error
	moveCalls   int
	renameCalls int
}

func (f *lockedFS) Move(src, dst string) error {
	f.mu.Lock()
	f.moveCalls++
	f.mu.Unlock()
	if f.moveLocked != nil && f.moveLocked(src, dst) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: errLocked}
	}
	if f.move != nil {
		return f.move(src, dst)
	}
	return f.OSFS.Move(src, dst)
}

func (f *lockedFS) Rename(src, dst string) error {
	f.mu.Lock()
	f.renameCalls++
	f.mu.Unlock()
	if f.crossDevice != nil && f.crossDevice(src, dst) {
		return fmt.Errorf("%w: %w", platform.ErrCrossDevice, &os.LinkError{Op: "rename", Old: src, New: dst, Err: errors.New("invalid cross-device link")})
	}
	if f.renameLocked != nil && f.renameLocked(src, dst) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: errLocked}
	}
	return f.OSFS.Rename(src, dst)
}

func (f *lockedFS) RemoveAll(path string) error {
	if f.rmLocked != nil && f.rmLocked(path) {
		return &fs.PathError{Op: "unlinkat", Path: path, Err: errLocked}
	}
	return f.OSFS.RemoveAll(path)
}

// quarantineOnOtherVolume reports renames into the cache quarantine as
// crossing volumes.
func quarantineOnOtherVolume(l workspace.Layout) func(src, dst string) bool {
	return func(src, dst string) bool {
		return strings.HasPrefix(dst, l.QuarantineDir+string(filepath.Separator))
	}
}
