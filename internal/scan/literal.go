// Package scan finds oklch() color literals in text.
package scan

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/GosuCode/oklch-color-preview/internal/color"
)

// component matches one raw argument. It is deliberately wider than a number
// so that malformed arguments still produce a match and are rejected by
// ParseComponent instead of silently shifting the match boundaries.
const component = `([^\s/()]+)`

var literalPattern = regexp.MustCompile(
	`(?i)oklch\(\s*` + component + `\s+` + component + `\s+` + component +
		`\s*(?:/\s*` + component + `\s*)?\)`,
)

var numberPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// Literal is one oklch() occurrence. Start and End are byte offsets, End exclusive.
type Literal struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`

	L        string `json:"l"`
	C        string `json:"c"`
	H        string `json:"h"`
	Alpha    string `json:"alpha,omitempty"`
	HasAlpha bool   `json:"has_alpha"`
}

// Find returns every non-overlapping oklch() literal in text, leftmost first.
func Find(text string) []Literal {
	matches := literalPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	literals := make([]Literal, 0, len(matches))
	for _, m := range matches {
		lit := Literal{
			Start: m[0],
			End:   m[1],
			Text:  text[m[0]:m[1]],
			L:     text[m[2]:m[3]],
			C:     text[m[4]:m[5]],
			H:     text[m[6]:m[7]],
		}
		if m[8] >= 0 {
			lit.Alpha = text[m[8]:m[9]]
			lit.HasAlpha = true
		}
		literals = append(literals, lit)
	}
	return literals
}

// Value parses the literal's components. Components that are not decimal
// numbers come back as NaN, which color.Convert maps to color.Invalid.
func (l Literal) Value() color.Oklch {
	v := color.Oklch{
		L:     ParseComponent(l.L),
		C:     ParseComponent(l.C),
		H:     ParseComponent(l.H),
		Alpha: 1,
	}
	if l.HasAlpha {
		v.Alpha = ParseComponent(l.Alpha)
	}
	return v
}

// ParseComponent parses a decimal number with an optional trailing '%'.
// Percentages are divided by 100. Anything else returns NaN.
func ParseComponent(raw string) float64 {
	s := strings.TrimSpace(raw)
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = s[:len(s)-1]
	}
	if !numberPattern.MatchString(s) {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if percent {
		v /= 100
	}
	return v
}
