package scanner

import (
	"github.com/AlexTiTanium/worm-scan/pkg/advisory"
	"github.com/AlexTiTanium/worm-scan/pkg/npm"
	"github.com/AlexTiTanium/worm-scan/pkg/set"
)

// NameStats is the intersection detail for one advisory-listed package
// actually present in the tree: the versions installed and the versions
// the feed flags.
type NameStats struct {
	Name      string   `json:"name"`
	Installed []string `json:"installed"`
	Advisory  []string `json:"advisory"`
}

// Summary carries the aggregate counts handed to the reporting layer.
type Summary struct {
	TotalInstalled int         `json:"total_installed"`
	DistinctNames  int         `json:"distinct_names"`
	AdvisoryNames  int         `json:"advisory_names"`
	Overlap        []NameStats `json:"overlap,omitempty"`
}

// Stats derives the reporting summary from the installed list and the
// advisory map. Overlap entries are sorted by name.
func Stats(installed []npm.Package, advisories advisory.Map) Summary {
	names := set.New[string]()
	byName := make(map[string]set.Ordered[string])
	for _, pkg := range installed {
		names.Append(pkg.Name)
		s, ok := byName[pkg.Name]
		if !ok {
			s = set.NewOrdered[string]()
			byName[pkg.Name] = s
		}
		s.Append(pkg.Version)
	}

	summary := Summary{
		TotalInstalled: len(installed),
		DistinctNames:  names.Size(),
		AdvisoryNames:  len(advisories),
	}

	for _, name := range advisories.Names() {
		installedVersions, present := byName[name]
		if !present {
			continue
		}
		advisoryVersions, _ := advisories.Versions(name)
		summary.Overlap = append(summary.Overlap, NameStats{
			Name:      name,
			Installed: installedVersions.Values(),
			Advisory:  advisoryVersions.Values(),
		})
	}
	return summary
}
