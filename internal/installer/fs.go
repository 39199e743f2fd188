package installer

import (
	"io/fs"
	"os"

	"github.com/agentx-labs/pkginstall/internal/platform"
)

// FS is the set of filesystem mutations the installer performs. Tests
// substitute implementations that simulate paths held open by another
// process.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
	RemoveAll(path string) error
	// Rename never copies; it fails with platform.ErrCrossDevice instead.
	Rename(src, dst string) error
	Move(src, dst string) error
}

// OSFS is the real filesystem.
type OSFS struct{}

func (OSFS) Stat(name string) (fs.FileInfo, error)        { return os.Stat(name) }
func (OSFS) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }
func (OSFS) RemoveAll(path string) error                  { return os.RemoveAll(path) }
func (OSFS) Rename(src, dst string) error                 { return platform.Rename(src, dst) }
func (OSFS) Move(src, dst string) error                   { return platform.Move(src, dst) }
