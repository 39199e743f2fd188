package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/agentx-labs/pkginstall/internal/manifest"
	"github.com/agentx-labs/pkginstall/internal/platform"
)

// extractZip unpacks archivePath into destDir. Entries that would land
// outside destDir are rejected; symlinks are skipped.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", root, err)
	}

	for _, f := range r.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || isDirEntry(f.Name):
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", f.Name, err)
			}
		case mode&os.ModeSymlink != 0:
			continue
		default:
			if err := extractFile(f, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// entryPath maps an archive entry name to a path under root. Archives made
// on Windows may use backslashes. An empty result means the entry is the
// root itself.
func entryPath(root, name string) (string, error) {
	clean := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(clean, "/") || filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("entry %q has an absolute path", name)
	}
	target := filepath.Join(root, filepath.FromSlash(clean))
	if target == root {
		return "", nil
	}
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the extraction directory", name)
	}
	return target, nil
}

// isDirEntry reports whether name is a directory entry, with either slash.
func isDirEntry(name string) bool {
	return strings.HasSuffix(name, "/") || strings.HasSuffix(name, `\`)
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	perm := platform.EntryMode(f.Mode())
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return platform.RestoreExec(target, perm)
}

// packageRoot returns the directory holding package.json. Archives that wrap
// the package in a single top-level folder are unwrapped.
func packageRoot(scratch string) string {
	if _, err := os.Stat(filepath.Join(scratch, manifest.FileName)); err == nil {
		return scratch
	}
	entries, err := os.ReadDir(scratch)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return scratch
	}
	inner := filepath.Join(scratch, entries[0].Name())
	if _, err := os.Stat(filepath.Join(inner, manifest.FileName)); err == nil {
		return inner
	}
	return scratch
}
