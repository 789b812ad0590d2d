package color

import "math"

// Oklch is a color in the cylindrical form of Oklab.
// L is lightness (nominally [0, 1]), C is chroma (>= 0), H is hue in degrees.
// Percentages are expected to be normalized to fractions before conversion.
type Oklch struct {
	L     float64 `json:"l"`
	C     float64 `json:"c"`
	H     float64 `json:"h"`
	Alpha float64 `json:"alpha"`
}

// RGB is the result of converting an Oklch value to 8-bit sRGB.
type RGB struct {
	// R, G, B are saturated into [0, 255].
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`

	// OrigR, OrigG, OrigB are the rounded channels before clamping.
	OrigR int `json:"orig_r"`
	OrigG int `json:"orig_g"`
	OrigB int `json:"orig_b"`

	InGamut bool    `json:"in_gamut"`
	Alpha   float64 `json:"alpha"`

	// Valid is false only for Invalid, the result of a non-finite input.
	Valid bool `json:"valid"`
}

// Invalid is returned by Convert when any component is NaN or infinite.
var Invalid = RGB{}

// Convert maps an Oklch value to sRGB and classifies gamut membership.
// It never panics: non-finite components produce Invalid.
//
// Hue is passed to the trigonometric step unchanged; sin and cos are
// periodic, so hues outside [0, 360) need no wrapping and keep full
// float64 precision.
func Convert(v Oklch) RGB {
	if !finite(v.L) || !finite(v.C) || !finite(v.H) || !finite(v.Alpha) {
		return Invalid
	}

	hRad := v.H * (math.Pi / 180.0)
	a := v.C * math.Cos(hRad)
	b := v.C * math.Sin(hRad)

	lr, lg, lb := oklabToLinearRGB(v.L, a, b)
	if !finite(lr) || !finite(lg) || !finite(lb) {
		lr, lg, lb = saturate(v.L, a, b)
	}

	out := RGB{
		OrigR: to8bit(linearToSRGB(lr)),
		OrigG: to8bit(linearToSRGB(lg)),
		OrigB: to8bit(linearToSRGB(lb)),
		Alpha: v.Alpha,
		Valid: true,
	}
	out.InGamut = in8bit(out.OrigR) && in8bit(out.OrigG) && in8bit(out.OrigB)
	out.R = clamp8bit(out.OrigR)
	out.G = clamp8bit(out.OrigG)
	out.B = clamp8bit(out.OrigB)

	return out
}

// oklabToLinearRGB converts Oklab (L, a, b) to linear-light sRGB.
func oklabToLinearRGB(L, a, b float64) (float64, float64, float64) {
	// Inverse M2: Lab → LMS'
	lp := L + 0.3963377774*a + 0.2158037573*b
	mp := L - 0.1055613458*a - 0.0638541728*b
	sp := L - 0.0894841775*a - 1.2914855480*b

	// Cube: LMS' → LMS
	l := lp * lp * lp
	m := mp * mp * mp
	s := sp * sp * sp

	// Inverse M1: LMS → linear RGB
	r := +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g := -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	bl := -0.0041960863*l - 0.7034186147*m + 1.7076147010*s

	return r, g, bl
}

// saturate handles inputs large enough to overflow the cube step. The
// conversion is homogeneous of degree 3 in (L, a, b), so each channel has the
// sign of the same conversion on scaled-down inputs; its magnitude is
// treated as infinite.
func saturate(L, a, b float64) (float64, float64, float64) {
	scale := math.Max(math.Abs(L), math.Max(math.Abs(a), math.Abs(b)))
	r, g, bl := oklabToLinearRGB(L/scale, a/scale, b/scale)
	return unbounded(r), unbounded(g), unbounded(bl)
}

func unbounded(v float64) float64 {
	switch {
	case v > 0:
		return math.Inf(1)
	case v < 0:
		return math.Inf(-1)
	}
	return 0
}

// linearToSRGB applies the sRGB transfer function to one channel.
// Values outside [0, 1] are encoded too so out-of-gamut colors stay detectable.
func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1.0/2.4) - 0.055
}

// maxChannel bounds pre-clamp channels so the int conversion stays defined.
const maxChannel = 1 << 24

func to8bit(v float64) int {
	v = math.Round(v * 255.0)
	if v > maxChannel {
		return maxChannel
	}
	if v < -maxChannel {
		return -maxChannel
	}
	return int(v)
}

func in8bit(v int) bool {
	return v >= 0 && v <= 255
}

func clamp8bit(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
