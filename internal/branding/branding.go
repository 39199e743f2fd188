// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks edit that file instead
// of the string literals scattered through the commands.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	EnvPrefix    string `yaml:"env_prefix"`
	ConfigFile   string `yaml:"config_file"`
	CacheDirName string `yaml:"cache_dir_name"`
	UserAgent    string `yaml:"user_agent"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "pkginstall",
			DisplayName:  "PackageInstaller",
			Description:  "Registry-driven package installer",
			EnvPrefix:    "PKGINSTALL",
			ConfigFile:   "pkginstall.yaml",
			CacheDirName: "com.agentx.pkginstall",
			UserAgent:    "pkginstall",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "pkginstall").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "PKGINSTALL").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigFile returns the default config file name inside a project root.
func ConfigFile() string { load(); return defaults.ConfigFile }

// CacheDirName returns the directory name used for the process-local cache root.
func CacheDirName() string { load(); return defaults.CacheDirName }

// UserAgent returns the User-Agent sent with every HTTP request.
func UserAgent() string { load(); return defaults.UserAgent }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("CONFIG") → "PKGINSTALL_CONFIG".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
