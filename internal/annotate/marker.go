// Package annotate turns oklch() literals in a buffer into a set of swatch
// markers and keeps exactly one such set live at a time.
package annotate

// Position is a zero-based line and column. Column counts runes from the
// start of the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a half-open span of display positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Offsets is a half-open span of byte offsets.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Border identifies which border a swatch is drawn with.
type Border string

const (
	BorderLight      Border = "light"
	BorderDark       Border = "dark"
	BorderOutOfGamut Border = "out_of_gamut"
)

// Marker is a rendering instruction for one literal.
type Marker struct {
	Range     Range   `json:"range"`
	Offsets   Offsets `json:"offsets"`
	Source    string  `json:"source"`
	Swatch    string  `json:"swatch"`
	Hex       string  `json:"hex"`
	Border    Border  `json:"border"`
	BorderCSS string  `json:"border_css"`
	InGamut   bool    `json:"in_gamut"`
}

// MarkerSet is the complete, ordered result of one rescan.
type MarkerSet struct {
	BufferID   string   `json:"buffer_id"`
	Generation uint64   `json:"generation"`
	Markers    []Marker `json:"markers"`

	// Skipped counts literals that matched but failed to parse.
	Skipped int `json:"skipped"`

	released bool
}

// Len returns the number of markers.
func (s *MarkerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Markers)
}

// Released reports whether a newer set has superseded this one.
func (s *MarkerSet) Released() bool {
	return s != nil && s.released
}

// SameContent reports whether two sets describe identical markers,
// ignoring buffer identity and generation.
func (s *MarkerSet) SameContent(other *MarkerSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for i := range s.Markers {
		if s.Markers[i] != other.Markers[i] {
			return false
		}
	}
	return true
}
