package semver

import (
	"strconv"
	"strings"
)

// Version holds the numeric major.minor.patch triple of a version string.
// Prerelease and build qualifiers are intentionally not represented.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse extracts major.minor.patch from a version string. A single leading
// "v" is tolerated, and anything after the first "-" in the patch segment
// (prerelease or build suffix) is discarded. It returns ok=false when the
// string does not carry at least three dot-separated numeric segments.
func Parse(s string) (Version, bool) {
	s = strings.TrimPrefix(s, "v")
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return Version{}, false
	}

	patch := parts[2]
	if idx := strings.Index(patch, "-"); idx != -1 {
		patch = patch[:idx]
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return Version{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return Version{}, false
	}
	p, err := strconv.Atoi(patch)
	if err != nil || p < 0 {
		return Version{}, false
	}

	return Version{Major: major, Minor: minor, Patch: p}, true
}

// Compare imposes a total order over two version strings. Parsed versions
// order by major, minor, patch; a parsed version sorts before an unparsable
// one; two unparsable versions fall back to lexical comparison. The order is
// stable across runs so that sorted output is reproducible.
func Compare(a, b string) int {
	va, okA := Parse(a)
	vb, okB := Parse(b)

	switch {
	case okA && okB:
		if c := cmpInt(va.Major, vb.Major); c != 0 {
			return c
		}
		if c := cmpInt(va.Minor, vb.Minor); c != 0 {
			return c
		}
		return cmpInt(va.Patch, vb.Patch)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
