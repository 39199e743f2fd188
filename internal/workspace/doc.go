// Package workspace resolves the on-disk layout of a project: the installed
// packages directory, the drop folder for local archives, the cache root with
// its staging and quarantine areas, and the managed-environment marker.
package workspace
