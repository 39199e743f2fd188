// Package config loads the per-project installer configuration from
// pkginstall.yaml in the project root, with PKGINSTALL_* environment
// overrides. Each Load builds its own viper instance; the result is an
// explicit *Config passed to the components that need it.
package config
