package version

import (
	"strconv"
	"strings"
)

// Compare orders two version strings.
// Returns 1 if a > b, -1 if a < b, and 0 when they are equal.
// A single leading "v" or "V" is ignored on both sides.
func Compare(a, b string) int {
	as := segments(a)
	bs := segments(b)

	for i, seg := range as {
		if i >= len(bs) {
			return 1
		}
		if c := compareSegment(seg, bs[i]); c != 0 {
			return c
		}
	}
	if len(bs) > len(as) {
		return -1
	}
	return 0
}

// Newer reports whether candidate orders strictly after current.
func Newer(candidate, current string) bool {
	return Compare(candidate, current) > 0
}

func segments(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		v = v[1:]
	}
	return strings.Split(v, ".")
}

// compareSegment compares numerically when both sides are integers,
// otherwise byte-wise.
func compareSegment(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case ai > bi:
			return 1
		case ai < bi:
			return -1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
