package scanner

import (
	"encoding/json"
	"sort"

	"golang.org/x/xerrors"

	"github.com/AlexTiTanium/worm-scan/pkg/advisory"
	"github.com/AlexTiTanium/worm-scan/pkg/npm"
	"github.com/AlexTiTanium/worm-scan/pkg/semver"
)

// DefaultThreshold is the patch distance used when the caller supplies a
// negative threshold.
const DefaultThreshold = 1

// Level classifies a finding. Critical orders before warning.
type Level int

const (
	LevelCritical Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelCritical {
		return "critical"
	}
	return "warning"
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "critical":
		*l = LevelCritical
	case "warning":
		*l = LevelWarning
	default:
		return xerrors.Errorf("unknown level %q", s)
	}
	return nil
}

// Finding reports one installed package that matched the advisory map.
// Against is the advisory version it matched or was compared to.
type Finding struct {
	Level   Level  `json:"level"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Against string `json:"against"`
}

// Match classifies every installed package against the advisory map.
// An exact version-string match is critical, and so is an advisory entry
// whose parsed triple equals the installed one under a different string
// form. Otherwise a parseable installed version sharing major.minor with
// an advisory version within threshold patch distance is a warning. At
// most one finding per package: advisory versions are scanned in
// ascending order and the first qualifying entry decides, so ties resolve
// deterministically. Packages with unparsable versions and no exact match
// are clean.
func Match(installed []npm.Package, advisories advisory.Map, threshold int) []Finding {
	if threshold < 0 {
		threshold = DefaultThreshold
	}

	var findings []Finding
	for _, pkg := range installed {
		versions, listed := advisories.Versions(pkg.Name)
		if !listed {
			continue
		}

		if versions.Contains(pkg.Version) {
			findings = append(findings, Finding{
				Level:   LevelCritical,
				Name:    pkg.Name,
				Version: pkg.Version,
				Against: pkg.Version,
			})
			continue
		}

		iv, ok := semver.Parse(pkg.Version)
		if !ok {
			continue
		}

		for _, av := range versions.Values() {
			mv, ok := semver.Parse(av)
			if !ok {
				continue
			}
			// The same triple written differently ("v1.2.3" vs "1.2.3")
			// is still the malicious version itself, not a near miss.
			if mv == iv {
				findings = append(findings, Finding{
					Level:   LevelCritical,
					Name:    pkg.Name,
					Version: pkg.Version,
					Against: av,
				})
				break
			}
			if mv.Major == iv.Major && mv.Minor == iv.Minor && patchDistance(mv.Patch, iv.Patch) <= threshold {
				findings = append(findings, Finding{
					Level:   LevelWarning,
					Name:    pkg.Name,
					Version: pkg.Version,
					Against: av,
				})
				break
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Level != findings[j].Level {
			return findings[i].Level < findings[j].Level
		}
		if findings[i].Name != findings[j].Name {
			return findings[i].Name < findings[j].Name
		}
		return semver.Compare(findings[i].Version, findings[j].Version) < 0
	})
	return findings
}

func patchDistance(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
