package advisory

import (
	"sort"

	"github.com/AlexTiTanium/worm-scan/pkg/set"
)

// Map is the canonical advisory mapping: package name to the set of its
// known-malicious version strings. Names are case-sensitive and version
// uniqueness is by exact string value. Every key holds a non-empty set.
type Map map[string]set.Ordered[string]

// Add records one (package, version) fact. Empty names and versions are
// dropped so the non-empty invariant holds.
func (m Map) Add(name, version string) {
	if name == "" || version == "" {
		return
	}
	s, ok := m[name]
	if !ok {
		s = set.NewOrdered[string]()
		m[name] = s
	}
	s.Append(version)
}

// Versions returns the malicious version set recorded for a package name.
func (m Map) Versions(name string) (set.Ordered[string], bool) {
	s, ok := m[name]
	return s, ok
}

// Names returns all package names in the map, sorted.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
