package ops

import (
	"math"

	"github.com/GosuCode/oklch-color-preview/internal/color"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
	"github.com/GosuCode/oklch-color-preview/internal/scan"
)

// ConvertInput holds raw oklch() components as they would appear in CSS.
type ConvertInput struct {
	L     string
	C     string
	H     string
	Alpha string // optional, defaults to 1
}

// ConvertOutput contains the converted color.
type ConvertOutput struct {
	Input   color.Oklch `json:"input"`
	RGB     color.RGB   `json:"rgb"`
	CSS     string      `json:"css"`
	Hex     string      `json:"hex"`
	InGamut bool        `json:"in_gamut"`
}

// Convert parses and converts a single OKLCH color.
func Convert(input ConvertInput) (*ConvertOutput, error) {
	v := color.Oklch{
		L:     scan.ParseComponent(input.L),
		C:     scan.ParseComponent(input.C),
		H:     scan.ParseComponent(input.H),
		Alpha: 1,
	}
	if input.Alpha != "" {
		v.Alpha = scan.ParseComponent(input.Alpha)
	}

	bad := make(map[string]string)
	for name, pair := range map[string]struct {
		raw string
		val float64
	}{
		"l": {input.L, v.L}, "c": {input.C, v.C}, "h": {input.H, v.H}, "alpha": {input.Alpha, v.Alpha},
	} {
		if math.IsNaN(pair.val) {
			bad[name] = pair.raw
		}
	}
	if len(bad) > 0 {
		return nil, errors.NewInvalidColor(bad)
	}

	rgb := color.Convert(v)
	if !rgb.Valid {
		return nil, errors.NewInvalidColor(map[string]string{
			"l": input.L, "c": input.C, "h": input.H, "alpha": input.Alpha,
		})
	}

	return &ConvertOutput{
		Input:   v,
		RGB:     rgb,
		CSS:     rgb.CSS(),
		Hex:     rgb.Hex(),
		InGamut: rgb.InGamut,
	}, nil
}
