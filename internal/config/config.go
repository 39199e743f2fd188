package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/pkginstall/internal/branding"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

const fileType = "yaml"

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// PackageRequest asks for one registry package.
type PackageRequest struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Version is an exact version, "latest", empty, or a "^" range marker.
	Version string `mapstructure:"version" yaml:"version,omitempty"`
	// Force reinstalls even when the installed version is not older.
	Force bool `mapstructure:"force" yaml:"force,omitempty"`
}

// Paths overrides the workspace layout. Relative paths resolve against the
// project root.
type Paths struct {
	Packages    string `mapstructure:"packages" yaml:"packages"`
	ZipPackages string `mapstructure:"zip_packages" yaml:"zip_packages"`
	Cache       string `mapstructure:"cache" yaml:"cache"`
	Marker      string `mapstructure:"marker" yaml:"marker"`
	Languages   string `mapstructure:"languages" yaml:"languages"`
}

// Config is the installer configuration record.
type Config struct {
	RegistryURL             string           `mapstructure:"registry_url" yaml:"registry_url"`
	InstallRegistryPackages bool             `mapstructure:"install_registry_packages" yaml:"install_registry_packages"`
	Packages                []PackageRequest `mapstructure:"packages" yaml:"packages"`
	InstallZipPackages      bool             `mapstructure:"install_zip_packages" yaml:"install_zip_packages"`
	ForceInstallZipPackages bool             `mapstructure:"force_install_zip_packages" yaml:"force_install_zip_packages"`
	DeleteSelf              bool             `mapstructure:"delete_self" yaml:"delete_self"`
	DeleteFolders           []string         `mapstructure:"delete_folders" yaml:"delete_folders"`
	VerifyChecksums         bool             `mapstructure:"verify_checksums" yaml:"verify_checksums"`
	Language                string           `mapstructure:"language" yaml:"language"`
	Paths                   Paths            `mapstructure:"paths" yaml:"paths"`
}

// Default returns the configuration written by `init`.
func Default() *Config {
	return &Config{
		InstallRegistryPackages: true,
		Packages:                []PackageRequest{},
		InstallZipPackages:      true,
		DeleteFolders:           []string{},
		Language:                "en",
		Paths: Paths{
			Packages:    workspace.DefaultPackagesDir,
			ZipPackages: workspace.DefaultZipPackagesDir,
			Cache:       filepath.ToSlash(workspace.DefaultCacheDir()),
			Marker:      workspace.DefaultMarkerFile,
			Languages:   workspace.DefaultLanguageDir,
		},
	}
}

// FilePath returns the default config file location inside root.
func FilePath(root string) string {
	return filepath.Join(root, branding.ConfigFile())
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("registry_url", d.RegistryURL)
	v.SetDefault("install_registry_packages", d.InstallRegistryPackages)
	v.SetDefault("install_zip_packages", d.InstallZipPackages)
	v.SetDefault("force_install_zip_packages", d.ForceInstallZipPackages)
	v.SetDefault("delete_self", d.DeleteSelf)
	v.SetDefault("verify_checksums", d.VerifyChecksums)
	v.SetDefault("language", d.Language)
	v.SetDefault("paths.packages", d.Paths.Packages)
	v.SetDefault("paths.zip_packages", d.Paths.ZipPackages)
	v.SetDefault("paths.cache", d.Paths.Cache)
	v.SetDefault("paths.marker", d.Paths.Marker)
	v.SetDefault("paths.languages", d.Paths.Languages)
}

// Load reads the config file at path and applies environment overrides,
// e.g. PKGINSTALL_REGISTRY_URL or PKGINSTALL_PATHS_CACHE.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Layout resolves the configured paths against root.
func (c *Config) Layout(root string) (workspace.Layout, error) {
	return workspace.New(root, workspace.Dirs{
		Packages:    filepath.FromSlash(c.Paths.Packages),
		ZipPackages: filepath.FromSlash(c.Paths.ZipPackages),
		Cache:       filepath.FromSlash(c.Paths.Cache),
		Marker:      filepath.FromSlash(c.Paths.Marker),
		Languages:   filepath.FromSlash(c.Paths.Languages),
	})
}

// Requests returns the package requests with blank names dropped and
// fields trimmed.
func (c *Config) Requests() []PackageRequest {
	out := make([]PackageRequest, 0, len(c.Packages))
	for _, p := range c.Packages {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, PackageRequest{Name: name, Version: strings.TrimSpace(p.Version), Force: p.Force})
	}
	return out
}
