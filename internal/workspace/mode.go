package workspace

import (
	"os"

	"github.com/agentx-labs/pkginstall/internal/branding"
)

// Mode represents whether the project runs inside a managed environment.
type Mode int

const (
	// ModeStandalone is a normal developer checkout. Archives are moved out of
	// the drop folder and configured folders may be deleted after a run.
	ModeStandalone Mode = iota
	// ModeManaged is a hosted environment that owns installed packages.
	// Existing packages are never replaced and drop-folder archives are copied.
	ModeManaged
)

// DetectMode returns ModeManaged when the marker file exists or
// PKGINSTALL_MANAGED is set to a non-empty value.
func (l Layout) DetectMode() Mode {
	if os.Getenv(branding.EnvVar("MANAGED")) != "" {
		return ModeManaged
	}
	if l.MarkerFile == "" {
		return ModeStandalone
	}
	if _, err := os.Stat(l.MarkerFile); err == nil {
		return ModeManaged
	}
	return ModeStandalone
}

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeManaged:
		return "managed"
	case ModeStandalone:
		return "standalone"
	default:
		return "unknown"
	}
}
