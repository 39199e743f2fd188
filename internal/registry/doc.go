// Package registry models a remote package registry listing: a document
// mapping package names to ordered version entries, each carrying download
// and descriptive metadata. It also selects the version to install for a
// request (latest, exact, or latest-on-miss).
package registry
