package advisory

import (
	"regexp"
	"strings"

	"github.com/AlexTiTanium/worm-scan/pkg/ecosystem"
)

// The feed has no contractual schema. Different publishers ship it as an
// array of records, a name-to-versions object, or either of those nested
// under a wrapper key, and field names drift between revisions. Each known
// convention is handled by one rule; all rules fire on every value and
// their facts are unioned, so a new convention is one more table entry.
type rule struct {
	name    string
	match   func(v any) bool
	extract func(v any, eco ecosystem.Type, m Map)
}

var rules []rule

// Populated here rather than in the var declaration: extractContainers
// recurses through normalizeInto back into the table, which would
// otherwise be an initialization cycle.
func init() {
	rules = []rule{
		{name: "record-sequence", match: isArray, extract: extractRecords},
		{name: "name-to-versions", match: isObject, extract: extractVersionArrays},
		{name: "wrapper-container", match: isObject, extract: extractContainers},
		{name: "nested-object", match: isObject, extract: extractNested},
		{name: "single-version", match: isObject, extract: extractScalars},
	}
}

// Field names observed across feed revisions. The first present name field
// is authoritative per record; every present version field contributes.
var (
	nameKeys    = []string{"name", "package", "package_name", "pkg", "module"}
	versionKeys = []string{"versions", "affected_versions", "affected"}

	// Wrapper keys recursed into structurally instead of being read as
	// package names.
	containerKeys = map[string]struct{}{
		"packages":   {},
		"data":       {},
		"advisories": {},
		"results":    {},
		"items":      {},
	}
)

var versionLike = regexp.MustCompile(`\d+\.\d+`)

// Normalize reduces a decoded advisory feed of unknown shape into a Map.
// Records tagged with an ecosystem other than eco (case-insensitive) are
// skipped. Unrecognized structure is ignored, never an error: the feed's
// shape drifts and a partial result beats a crash.
func Normalize(v any, eco ecosystem.Type) Map {
	m := Map{}
	normalizeInto(v, eco, m)
	return m
}

func normalizeInto(v any, eco ecosystem.Type, m Map) {
	for _, r := range rules {
		if r.match(v) {
			r.extract(v, eco, m)
		}
	}
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// extractRecords handles a sequence of advisory records, each carrying a
// name-bearing field plus a version string and/or version arrays.
func extractRecords(v any, eco ecosystem.Type, m Map) {
	for _, elem := range v.([]any) {
		rec, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		extractRecord(rec, eco, m)
	}
}

func extractRecord(rec map[string]any, eco ecosystem.Type, m Map) {
	if tag, ok := rec["ecosystem"].(string); ok && !strings.EqualFold(tag, eco.String()) {
		return
	}

	var name string
	for _, key := range nameKeys {
		if s, ok := rec[key].(string); ok && s != "" {
			name = s
			break
		}
	}
	if name == "" {
		return
	}

	if ver, ok := rec["version"].(string); ok {
		m.Add(name, ver)
	}
	for _, key := range versionKeys {
		for _, ver := range stringSlice(rec[key]) {
			m.Add(name, ver)
		}
	}
}

// extractVersionArrays handles the object convention where a key maps
// straight to an array of version strings.
func extractVersionArrays(v any, _ ecosystem.Type, m Map) {
	for key, val := range v.(map[string]any) {
		if _, wrapper := containerKeys[key]; wrapper {
			continue
		}
		for _, ver := range versionStrings(val) {
			m.Add(key, ver)
		}
	}
}

// extractContainers recurses into well-known wrapper keys.
func extractContainers(v any, eco ecosystem.Type, m Map) {
	for key, val := range v.(map[string]any) {
		if _, wrapper := containerKeys[key]; wrapper {
			normalizeInto(val, eco, m)
		}
	}
}

// extractNested scans one level into anonymous nested objects for inner
// keys holding version-like string arrays.
func extractNested(v any, _ ecosystem.Type, m Map) {
	for key, val := range v.(map[string]any) {
		if _, wrapper := containerKeys[key]; wrapper {
			continue
		}
		inner, ok := val.(map[string]any)
		if !ok {
			continue
		}
		for innerKey, innerVal := range inner {
			for _, ver := range versionStrings(innerVal) {
				m.Add(innerKey, ver)
			}
		}
	}
}

// extractScalars handles a bare version-like string directly under a key.
func extractScalars(v any, _ ecosystem.Type, m Map) {
	for key, val := range v.(map[string]any) {
		if _, wrapper := containerKeys[key]; wrapper {
			continue
		}
		if s, ok := val.(string); ok && versionLike.MatchString(s) {
			m.Add(key, s)
		}
	}
}

// versionStrings returns the value as a string slice when every element is
// version-like, nil otherwise.
func versionStrings(v any) []string {
	ss := stringSlice(v)
	if len(ss) == 0 {
		return nil
	}
	for _, s := range ss {
		if !versionLike.MatchString(s) {
			return nil
		}
	}
	return ss
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var ss []string
	for _, elem := range arr {
		s, ok := elem.(string)
		if !ok {
			return nil
		}
		ss = append(ss, s)
	}
	return ss
}
