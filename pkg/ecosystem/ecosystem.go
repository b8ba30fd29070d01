package ecosystem

// Type represents an ecosystem identifier (stable slug). Only npm is
// scanned today; records tagged for anything else are filtered out of the
// advisory feed.
type Type string

const (
	Npm Type = "npm"
)

// String returns the string representation of the ecosystem type
func (t Type) String() string {
	return string(t)
}
