package npm

import (
	"reflect"
	"sort"

	"github.com/AlexTiTanium/worm-scan/pkg/semver"
	"github.com/AlexTiTanium/worm-scan/pkg/set"
)

// Package is one distinct (name, version) pair installed in the tree.
type Package struct {
	Name    string
	Version string
}

// Flatten walks a decoded dependency tree and returns every distinct
// (name, version) pair, sorted by name and then by semantic version order.
// A node without its own name falls back to the dependency key it was
// reached under; a node missing a name or version is skipped but its
// children are still traversed. Shared subtrees are emitted once, and a
// reference cycle is truncated at the re-entering edge rather than
// recursed into. A non-object root yields no packages.
func Flatten(root any) []Package {
	var out []Package
	seen := set.New[Package]()
	visiting := make(map[uintptr]struct{})
	walk("", root, seen, visiting, &out)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return semver.Compare(out[i].Version, out[j].Version) < 0
	})
	return out
}

func walk(key string, v any, seen set.Set[Package], visiting map[uintptr]struct{}, out *[]Package) {
	node, ok := v.(map[string]any)
	if !ok {
		return
	}

	id := reflect.ValueOf(node).Pointer()
	if _, inProgress := visiting[id]; inProgress {
		return
	}
	visiting[id] = struct{}{}
	defer delete(visiting, id)

	name, _ := node["name"].(string)
	if name == "" {
		name = key
	}
	version, _ := node["version"].(string)

	if name != "" && version != "" {
		pkg := Package{Name: name, Version: version}
		if !seen.Contains(pkg) {
			seen.Append(pkg)
			*out = append(*out, pkg)
		}
	}

	deps, _ := node["dependencies"].(map[string]any)
	childKeys := make([]string, 0, len(deps))
	for k := range deps {
		childKeys = append(childKeys, k)
	}
	sort.Strings(childKeys)
	for _, k := range childKeys {
		walk(k, deps[k], seen, visiting, out)
	}
}
