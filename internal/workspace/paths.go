package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/pkginstall/internal/branding"
)

// Directory and file name defaults relative to the project root.
const (
	DefaultPackagesDir    = "Packages"
	DefaultZipPackagesDir = "ZipPackages"
	DefaultMarkerFile     = "codespace.txt"
	DefaultLanguageDir    = "Language"

	// StagingDirName, QuarantineDirName and DownloadsDirName live under the
	// cache root.
	StagingDirName    = "Package"
	QuarantineDirName = "oldPackage"
	DownloadsDirName  = "downloads"

	// ParkingSuffix ends the hidden sibling that holds a previous install
	// while it is swapped across volumes.
	ParkingSuffix = ".old"
)

// DirPermNormal is used for every directory the installer creates.
const DirPermNormal os.FileMode = 0755

// DefaultCacheDir returns the cache root relative to the project root.
func DefaultCacheDir() string {
	return filepath.Join("Temp", branding.CacheDirName())
}

// Dirs holds the configurable locations. Relative entries are resolved
// against the project root; empty entries take the defaults.
type Dirs struct {
	Packages    string
	ZipPackages string
	Cache       string
	Marker      string
	Languages   string
}

// Layout is the fully resolved set of absolute paths for one project.
type Layout struct {
	Root           string
	PackagesDir    string
	ZipPackagesDir string
	CacheDir       string
	StagingDir     string
	QuarantineDir  string
	DownloadsDir   string
	MarkerFile     string
	LanguageDir    string
}

// New resolves dirs against root.
func New(root string, dirs Dirs) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolving project root %s: %w", root, err)
	}
	resolve := func(p, def string) string {
		if p == "" {
			p = def
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(abs, p)
	}

	cache := resolve(dirs.Cache, DefaultCacheDir())
	return Layout{
		Root:           abs,
		PackagesDir:    resolve(dirs.Packages, DefaultPackagesDir),
		ZipPackagesDir: resolve(dirs.ZipPackages, DefaultZipPackagesDir),
		CacheDir:       cache,
		StagingDir:     filepath.Join(cache, StagingDirName),
		QuarantineDir:  filepath.Join(cache, QuarantineDirName),
		DownloadsDir:   filepath.Join(cache, DownloadsDirName),
		MarkerFile:     resolve(dirs.Marker, DefaultMarkerFile),
		LanguageDir:    resolve(dirs.Languages, DefaultLanguageDir),
	}, nil
}

// PackageDir returns the install destination for a package.
func (l Layout) PackageDir(name string) string {
	return filepath.Join(l.PackagesDir, name)
}

// ScratchDir returns the extraction directory for an archive stem.
func (l Layout) ScratchDir(stem string) string {
	return filepath.Join(l.StagingDir, stem)
}

// QuarantinePath returns where the previous install of name is parked
// during a swap.
func (l Layout) QuarantinePath(name string) string {
	return filepath.Join(l.QuarantineDir, name)
}

// ParkingPath returns the same-volume fallback for QuarantinePath, used
// when the cache root sits on a different volume than the packages
// directory. Hidden so package listings skip it.
func (l Layout) ParkingPath(name string) string {
	return filepath.Join(l.PackagesDir, "."+name+ParkingSuffix)
}

// Ensure creates the packages directory and the zip drop folder.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.PackagesDir, l.ZipPackagesDir} {
		if err := os.MkdirAll(dir, DirPermNormal); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
