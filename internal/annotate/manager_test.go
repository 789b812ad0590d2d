package annotate

import (
	stderrors "errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// textBuffer is a minimal Buffer over a string.
type textBuffer struct {
	id   string
	text string
}

func (b *textBuffer) ID() string   { return b.id }
func (b *textBuffer) Text() string { return b.text }

func (b *textBuffer) PositionAt(offset int) Position {
	before := b.text[:offset]
	line := strings.Count(before, "\n")
	col := utf8.RuneCountInString(before[strings.LastIndex(before, "\n")+1:])
	return Position{Line: line, Column: col}
}

// fakeHost records installs and tracks which sets are still displayed.
type fakeHost struct {
	active    Buffer
	installed []*MarkerSet
	failNext  bool
}

func (h *fakeHost) Active() (Buffer, bool) {
	return h.active, h.active != nil
}

func (h *fakeHost) Install(set *MarkerSet) error {
	h.installed = append(h.installed, set)
	if h.failNext {
		h.failNext = false
		return stderrors.New("decoration quota exceeded")
	}
	return nil
}

func newTestManager(active Buffer) (*Manager, *fakeHost) {
	host := &fakeHost{active: active}
	return NewManager(host, Options{}), host
}

func TestRescan_SingleLiteral(t *testing.T) {
	buf := &textBuffer{id: "a", text: "color: oklch(0.7 0.1 180);"}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 1, set.Len())

	mk := set.Markers[0]
	require.Equal(t, "oklch(0.7 0.1 180)", mk.Source)
	require.Equal(t, Offsets{Start: 7, End: 25}, mk.Offsets)
	require.Equal(t, Range{Start: Position{0, 7}, End: Position{0, 25}}, mk.Range)
	require.Equal(t, "rgb(75, 179, 161)", mk.Swatch)
	require.True(t, mk.InGamut)
	// (75+179+161)/3 >= 128
	require.Equal(t, BorderDark, mk.Border)
	require.Equal(t, DefaultOptions().DarkBorder, mk.BorderCSS)
}

func TestRescan_TealSpansFullLiteral(t *testing.T) {
	text := "color: oklch(0.7 0.15 180);"
	buf := &textBuffer{id: "a", text: text}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 1, set.Len())
	mk := set.Markers[0]
	require.Equal(t, "oklch(0.7 0.15 180)", text[mk.Offsets.Start:mk.Offsets.End])
	// Red channel is negative before clamping, so the swatch is clamped and flagged.
	require.Equal(t, "rgb(0, 188, 162)", mk.Swatch)
	require.False(t, mk.InGamut)
	require.Equal(t, BorderOutOfGamut, mk.Border)
}

func TestRescan_OutOfGamutWarning(t *testing.T) {
	buf := &textBuffer{id: "a", text: "oklch(1 0.4 0)"}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 1, set.Len())
	require.False(t, set.Markers[0].InGamut)
	require.Equal(t, BorderOutOfGamut, set.Markers[0].Border)
	require.Equal(t, DefaultOptions().OutOfGamutBorder, set.Markers[0].BorderCSS)
}

func TestRescan_MalformedSkipped(t *testing.T) {
	buf := &textBuffer{id: "a", text: "oklch(abc 0.1 30)"}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 0, set.Len())
	require.Equal(t, 1, set.Skipped)
	require.NotNil(t, set.Markers)
}

func TestRescan_OrderAndMalformedMix(t *testing.T) {
	text := strings.Join([]string{
		"a: oklch(0.2 0.05 30);",
		"b: oklch(x 0.1 30);",
		"c: oklch(0.9 0.02 90 / 50%);",
		"d: oklch(0.5 nan 30);",
		"e: OKLCH(60% 0.1 250);",
		"f: oklch(0.5 0.1 1e999);",
	}, "\n")
	buf := &textBuffer{id: "a", text: text}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 3, set.Len())
	require.Equal(t, 3, set.Skipped)

	wantSources := []string{"oklch(0.2 0.05 30)", "oklch(0.9 0.02 90 / 50%)", "OKLCH(60% 0.1 250)"}
	wantLines := []int{0, 2, 4}
	for i, mk := range set.Markers {
		require.Equal(t, wantSources[i], mk.Source)
		require.Equal(t, wantLines[i], mk.Range.Start.Line)
		require.Equal(t, 3, mk.Range.Start.Column)
		if i > 0 {
			require.Greater(t, mk.Offsets.Start, set.Markers[i-1].Offsets.Start)
		}
	}

	// Dark swatch gets the light border; translucent swatch uses rgba.
	require.Equal(t, BorderLight, set.Markers[0].Border)
	require.True(t, strings.HasPrefix(set.Markers[1].Swatch, "rgba("), set.Markers[1].Swatch)
	require.True(t, strings.HasSuffix(set.Markers[1].Swatch, ", 0.5)"), set.Markers[1].Swatch)
}

func TestRescan_Idempotent(t *testing.T) {
	buf := &textBuffer{id: "a", text: "x oklch(0.5 0.1 30) y oklch(1 0.4 0) z oklch(0.1 0 0 / .3)"}
	m, _ := newTestManager(buf)

	first := m.Refresh()
	second := m.Refresh()
	require.True(t, first.SameContent(second))
	require.NotEqual(t, first.Generation, second.Generation)
}

func TestRescan_PercentEqualsFraction(t *testing.T) {
	m, _ := newTestManager(nil)
	pct := m.Rescan(&textBuffer{id: "a", text: "oklch(50% 0.1 30)"})
	frac := m.Rescan(&textBuffer{id: "b", text: "oklch(0.5 0.1 30)"})
	require.Equal(t, 1, pct.Len())
	require.Equal(t, pct.Markers[0].Swatch, frac.Markers[0].Swatch)
}

func TestRescan_MultibyteColumns(t *testing.T) {
	buf := &textBuffer{id: "a", text: "// цвет\n  ✓ oklch(0.5 0.1 30)"}
	m, _ := newTestManager(buf)

	set := m.Rescan(buf)
	require.Equal(t, 1, set.Len())
	require.Equal(t, Position{Line: 1, Column: 4}, set.Markers[0].Range.Start)
	require.Equal(t, Position{Line: 1, Column: 21}, set.Markers[0].Range.End)
}

func TestInstall_ReplacesAndReleasesPrevious(t *testing.T) {
	buf := &textBuffer{id: "a", text: "oklch(0.5 0.1 30)"}
	m, host := newTestManager(buf)

	initial := m.Current()
	require.Equal(t, 0, initial.Len())

	first := m.Refresh()
	require.True(t, initial.Released())
	require.False(t, first.Released())
	require.Same(t, first, m.Current())

	buf.text = "oklch(0.5 0.1 30) oklch(0.2 0.1 30)"
	m.OnBufferChanged(buf)

	second := m.Current()
	require.True(t, first.Released())
	require.False(t, second.Released())
	require.Equal(t, 2, second.Len())
	require.Len(t, host.installed, 2)
	require.Same(t, second, host.installed[1])
}

func TestOnBufferChanged_IgnoresInactive(t *testing.T) {
	active := &textBuffer{id: "a", text: "oklch(0.5 0.1 30)"}
	other := &textBuffer{id: "b", text: "oklch(0.2 0.1 30) oklch(0.3 0.1 30)"}
	m, host := newTestManager(active)

	m.Refresh()
	m.OnBufferChanged(other)

	require.Len(t, host.installed, 1)
	require.Equal(t, "a", m.Current().BufferID)
}

func TestOnActiveBufferSwitched(t *testing.T) {
	a := &textBuffer{id: "a", text: "oklch(0.5 0.1 30)"}
	b := &textBuffer{id: "b", text: "no colors here"}
	m, host := newTestManager(a)

	m.Refresh()
	host.active = b
	m.OnActiveBufferSwitched(b)

	cur := m.Current()
	require.Equal(t, "b", cur.BufferID)
	require.Equal(t, 0, cur.Len())

	host.active = nil
	m.OnActiveBufferSwitched(nil)
	require.Equal(t, "", m.Current().BufferID)
}

func TestOnActiveBufferSwitched_ScansCurrentText(t *testing.T) {
	stale := &textBuffer{id: "b", text: "oklch(0.5 0 0)"}
	current := &textBuffer{id: "b", text: "oklch(0.5 0 0) oklch(0.6 0 0)"}
	m, _ := newTestManager(current)

	m.OnActiveBufferSwitched(stale)

	cur := m.Current()
	require.Equal(t, "b", cur.BufferID)
	require.Equal(t, 2, cur.Len())
}

func TestInstall_HostFailureStillReplaces(t *testing.T) {
	buf := &textBuffer{id: "a", text: "oklch(0.5 0.1 30)"}
	m, host := newTestManager(buf)

	first := m.Refresh()
	host.failNext = true
	buf.text = ""
	second := m.Refresh()

	require.True(t, first.Released())
	require.Same(t, second, m.Current())
	require.Equal(t, 0, second.Len())
}

func TestRefresh_NoActiveBuffer(t *testing.T) {
	m, host := newTestManager(nil)
	set := m.Refresh()
	require.Equal(t, 0, set.Len())
	require.Len(t, host.installed, 1)
}

func TestNewManager_CustomBorders(t *testing.T) {
	buf := &textBuffer{id: "a", text: "oklch(0.1 0 0)"}
	m := NewManager(&fakeHost{active: buf}, Options{LightBorder: "2px solid white"})

	set := m.Rescan(buf)
	require.Equal(t, BorderLight, set.Markers[0].Border)
	require.Equal(t, "2px solid white", set.Markers[0].BorderCSS)
}
