// Package synthpop describes the synthetic population a FRED run is
// executed against.
package synthpop

import "strings"

// SynthPop identifies a synthetic population version and the locations
// within it that a run should be restricted to.
type SynthPop struct {
	Version   string
	Locations []string
}

// New constructs a SynthPop. Locations is copied so later mutation of the
// caller's slice does not alias into the returned value.
func New(version string, locations []string) SynthPop {
	locs := make([]string, len(locations))
	copy(locs, locations)
	return SynthPop{Version: version, Locations: locs}
}

// String renders the legacy debug format used by the Python client this
// library is wire-compatible with.
func (s SynthPop) String() string {
	var b strings.Builder
	b.WriteString("SynthPop(name=")
	b.WriteString(s.Version)
	b.WriteString(", locations=[")
	for i, l := range s.Locations {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(l)
		b.WriteByte('\'')
	}
	b.WriteString("])")
	return b.String()
}

// Equal reports whether s and other describe the same population and an
// identical, order-sensitive, location list.
func (s SynthPop) Equal(other SynthPop) bool {
	if s.Version != other.Version || len(s.Locations) != len(other.Locations) {
		return false
	}
	for i, l := range s.Locations {
		if other.Locations[i] != l {
			return false
		}
	}
	return true
}
