package registry

import (
	"strings"

	"github.com/agentx-labs/pkginstall/internal/version"
)

// LatestToken is the request value that always selects the newest version.
const LatestToken = "latest"

// Resolution is the outcome of selecting a version for a request.
type Resolution struct {
	Requested string
	Version   *PackageVersion
	// FellBack is set when an exact version was requested, was missing from
	// the entry, and the latest version was selected instead.
	FellBack bool
}

// SelectLatest returns the highest version in the entry by version.Compare.
// On ties the earlier listed version wins. Returns nil for an empty entry.
func SelectLatest(entry *PackageEntry) *PackageVersion {
	var latest *PackageVersion
	for _, v := range entry.Versions() {
		if latest == nil || version.Compare(v.Version, latest.Version) > 0 {
			latest = v
		}
	}
	return latest
}

// SelectByRequest picks the version for a request string. Empty, "latest"
// and "^"-prefixed requests select the latest version; range markers are
// not evaluated. An exact request missing from the entry also selects the
// latest version, with FellBack set.
func SelectByRequest(entry *PackageEntry, requested string) Resolution {
	requested = strings.TrimSpace(requested)
	res := Resolution{Requested: requested}

	if IsLatestRequest(requested) {
		res.Version = SelectLatest(entry)
		return res
	}

	if v, ok := entry.Get(requested); ok {
		res.Version = v
		return res
	}

	res.Version = SelectLatest(entry)
	res.FellBack = res.Version != nil
	return res
}

// IsLatestRequest reports whether a request string asks for the newest version.
func IsLatestRequest(requested string) bool {
	requested = strings.TrimSpace(requested)
	return requested == "" || requested == LatestToken || strings.HasPrefix(requested, "^")
}
