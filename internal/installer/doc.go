// Package installer extracts a package archive and swaps it into the
// packages directory. The previous install is renamed into a quarantine
// directory before the new content is moved in, so at every instant the
// destination holds either the old package or the new one. A failure after
// the old package left the destination is reported as a degraded state and
// left for the operator; it is never healed automatically.
package installer
