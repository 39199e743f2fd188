package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Satisfies reports whether installed falls inside the semver range expr
// (e.g. "^1.2.0", ">=1.0.0 <2.0.0"). An empty or "*" range accepts anything.
func Satisfies(installed, expr string) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" || expr == "latest" {
		return true, nil
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return false, fmt.Errorf("parsing range %q: %w", expr, err)
	}
	v, err := parseSemver(installed)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", installed, err)
	}
	return c.Check(v), nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(v string) (*semver.Version, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	return semver.NewVersion(v)
}
