package orchestrator

import "github.com/agentx-labs/pkginstall/internal/installer"

// Status is the final state of one package in a run.
type Status string

const (
	StatusInstalled   Status = "installed"
	StatusUpToDate    Status = "up-to-date"
	StatusManagedSkip Status = "managed-skip"
	StatusFailed      Status = "failed"
)

// Source says where a package came from.
type Source string

const (
	SourceZip      Source = "zip"
	SourceRegistry Source = "registry"
)

// PackageReport records what happened to one package.
type PackageReport struct {
	Name      string
	Source    Source
	Requested string // requested version, registry packages only
	Resolved  string // version installed or considered
	Previous  string // version installed before the run
	Status    Status
	FellBack  bool // requested version was missing and latest was used
	Warnings  []string
	Err       error
}

// Report summarizes a run.
type Report struct {
	RunID          string
	Packages       []PackageReport
	CachePurged    bool
	DeletedFolders []string
}

// Failed reports whether any package failed.
func (r *Report) Failed() bool {
	for _, p := range r.Packages {
		if p.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Count returns the number of packages with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, p := range r.Packages {
		if p.Status == s {
			n++
		}
	}
	return n
}

func statusFor(o installer.Outcome) Status {
	switch o {
	case installer.OutcomeUpToDate:
		return StatusUpToDate
	case installer.OutcomeManagedSkip:
		return StatusManagedSkip
	default:
		return StatusInstalled
	}
}
