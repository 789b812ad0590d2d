package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

func TestScan_Markers(t *testing.T) {
	cfg := config.DefaultConfig()
	text := ".a {\n  color: oklch(0.7 0.1 180);\n  border: oklch(bad 0.1 1);\n}"

	out, err := Scan(cfg, ScanInput{Name: "a.css", Text: text})
	require.NoError(t, err)
	require.Equal(t, "a.css", out.Name)
	require.Equal(t, 1, out.Count)
	require.Equal(t, 1, out.Skipped)

	m := out.Markers[0]
	require.Equal(t, "oklch(0.7 0.1 180)", m.Source)
	require.Equal(t, annotate.Position{Line: 1, Column: 9}, m.Range.Start)
	require.Equal(t, "rgb(75, 179, 161)", m.Swatch)
	require.Equal(t, annotate.BorderDark, m.Border)
	require.Equal(t, cfg.BorderDark, m.BorderCSS)
}

func TestScan_Empty(t *testing.T) {
	out, err := Scan(config.DefaultConfig(), ScanInput{Text: "no colors here"})
	require.NoError(t, err)
	require.Equal(t, 0, out.Count)
	require.NotNil(t, out.Markers)
}

func TestScan_ConfiguredBorders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BorderOutOfGamut = "2px dotted red"

	out, err := Scan(cfg, ScanInput{Text: "oklch(1 0.4 0)"})
	require.NoError(t, err)
	require.Len(t, out.Markers, 1)
	require.Equal(t, annotate.BorderOutOfGamut, out.Markers[0].Border)
	require.Equal(t, "2px dotted red", out.Markers[0].BorderCSS)
	require.False(t, out.Markers[0].InGamut)
}

func TestScan_TooLarge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxDocumentChars = 10

	_, err := Scan(cfg, ScanInput{Text: "oklch(0.5 0.1 30)"})
	require.True(t, errors.Is(err, errors.ErrDocumentTooLarge), "got %v", err)
}

func TestScan_ExtremeChromaIsMarked(t *testing.T) {
	out, err := Scan(config.DefaultConfig(), ScanInput{Text: "oklch(0.5 1e110 0)"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.Equal(t, 0, out.Skipped)
	require.Equal(t, annotate.BorderOutOfGamut, out.Markers[0].Border)
	require.Equal(t, "rgb(255, 0, 0)", out.Markers[0].Swatch)
}
