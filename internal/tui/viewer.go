// Package tui is a terminal viewer that paints oklch() literals with their
// sRGB swatch colors.
package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/buffer"
	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
)

const helpText = "tab:next  r:reload  q:quit"

// Viewer shows the files of one workspace, one at a time.
type Viewer struct {
	screen tcell.Screen
	cfg    *config.Config
	ws     *buffer.Workspace
	mgr    *annotate.Manager

	scroll map[string]int
	status string
}

// New creates a viewer drawing to an initialized screen.
func New(screen tcell.Screen, cfg *config.Config) *Viewer {
	ws := buffer.NewWorkspace()
	mgr := annotate.NewManager(ws, cfg.AnnotateOptions())
	ws.Attach(mgr)
	return &Viewer{
		screen: screen,
		cfg:    cfg,
		ws:     ws,
		mgr:    mgr,
		scroll: make(map[string]int),
	}
}

// Open reads a file and makes it the active document. Opening a file that
// is already open reloads it.
func (v *Viewer) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return err
	}
	text, err := ops.ReadTextFile(resolved, v.cfg)
	if err != nil {
		return err
	}

	if _, ok := v.ws.Get(abs); ok {
		if _, err := v.ws.Edit(abs, text); err != nil {
			return err
		}
		_, err := v.ws.Switch(abs)
		return err
	}
	v.ws.Open(buffer.NewDocument(abs, filepath.Base(abs), text))
	return nil
}

// Reload re-reads the active document from disk.
func (v *Viewer) Reload() {
	doc := v.ws.ActiveDocument()
	if doc == nil {
		return
	}
	if err := v.Open(doc.ID()); err != nil {
		v.status = "reload failed: " + err.Error()
		return
	}
	v.status = "reloaded"
}

// Run draws and handles events until the user quits or the screen is
// finalized.
func (v *Viewer) Run() error {
	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.HandleEvent(ev) {
			return nil
		}
		v.Draw()
	}
}

// HandleEvent applies one event and reports whether the viewer should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		v.status = ""
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyTab:
			v.ws.Cycle(1)
		case tcell.KeyBacktab:
			v.ws.Cycle(-1)
		case tcell.KeyUp:
			v.scrollBy(-1)
		case tcell.KeyDown:
			v.scrollBy(1)
		case tcell.KeyPgUp:
			v.scrollBy(-v.bodyHeight())
		case tcell.KeyPgDn:
			v.scrollBy(v.bodyHeight())
		case tcell.KeyHome:
			v.scrollBy(-1 << 30)
		case tcell.KeyEnd:
			v.scrollBy(1 << 30)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 'r':
				v.Reload()
			case 'j':
				v.scrollBy(1)
			case 'k':
				v.scrollBy(-1)
			}
		}
	}
	return false
}

func (v *Viewer) bodyHeight() int {
	_, h := v.screen.Size()
	return max(h-1, 1)
}

func (v *Viewer) scrollBy(delta int) {
	doc := v.ws.ActiveDocument()
	if doc == nil {
		return
	}
	limit := max(doc.LineCount()-v.bodyHeight(), 0)
	top := v.scroll[doc.ID()] + delta
	v.scroll[doc.ID()] = min(max(top, 0), limit)
}

// Draw paints the active document and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.screen.Size()

	doc := v.ws.ActiveDocument()
	set := v.mgr.Current()
	if doc == nil {
		drawString(v.screen, 0, 0, w, "no document open", tcell.StyleDefault)
		v.drawStatus(w, h, nil, set)
		v.screen.Show()
		return
	}

	var markers []annotate.Marker
	if set.BufferID == doc.ID() {
		markers = set.Markers
	}

	top := v.scroll[doc.ID()]
	for row := 0; row < v.bodyHeight() && top+row < doc.LineCount(); row++ {
		line := top + row
		col := 0
		for _, r := range doc.Line(line) {
			if col >= w {
				break
			}
			style := tcell.StyleDefault
			if m := markerAt(markers, line, col); m != nil {
				style = markerStyle(m)
			}
			if r == '\t' {
				r = ' '
			}
			v.screen.SetContent(col, row, r, nil, style)
			col++
		}
	}

	v.drawStatus(w, h, doc, set)
	v.screen.Show()
}

func (v *Viewer) drawStatus(w, h int, doc *buffer.Document, set *annotate.MarkerSet) {
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, h-1, ' ', nil, style)
	}

	text := helpText
	if doc != nil {
		docs := v.ws.Documents()
		idx := 0
		for i, d := range docs {
			if d.ID() == doc.ID() {
				idx = i + 1
			}
		}
		outOfGamut := 0
		for _, m := range set.Markers {
			if !m.InGamut {
				outOfGamut++
			}
		}
		text = fmt.Sprintf("%s [%d/%d]  %d colors, %d out of gamut, %d skipped  %s",
			doc.Name(), idx, len(docs), set.Len(), outOfGamut, set.Skipped, helpText)
	}
	if v.status != "" {
		text = v.status + "  " + text
	}
	drawString(v.screen, 0, h-1, w, text, style)
}

func drawString(s tcell.Screen, x, y, w int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= w {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// markerAt returns the marker covering a display cell, if any.
func markerAt(markers []annotate.Marker, line, col int) *annotate.Marker {
	for i := range markers {
		m := &markers[i]
		start, end := m.Range.Start, m.Range.End
		if before(line, col, start.Line, start.Column) {
			continue
		}
		if !before(line, col, end.Line, end.Column) {
			continue
		}
		return m
	}
	return nil
}

func before(l1, c1, l2, c2 int) bool {
	return l1 < l2 || (l1 == l2 && c1 < c2)
}

// markerStyle paints a literal with its swatch as background and a
// foreground picked by border kind. Clamped colors are underlined and take
// the warning border color as foreground.
func markerStyle(m *annotate.Marker) tcell.Style {
	r, g, b, ok := parseHex(m.Hex)
	if !ok {
		return tcell.StyleDefault
	}
	var fg tcell.Color
	switch m.Border {
	case annotate.BorderDark:
		fg = tcell.ColorBlack
	case annotate.BorderLight:
		fg = tcell.ColorWhite
	default:
		fg = borderColor(m.BorderCSS, tcell.ColorRed)
	}
	style := tcell.StyleDefault.
		Background(tcell.NewRGBColor(r, g, b)).
		Foreground(fg)
	if !m.InGamut {
		style = style.Underline(true)
	}
	return style
}

// borderColor returns the first hex color in a CSS border declaration.
func borderColor(css string, fallback tcell.Color) tcell.Color {
	for _, field := range strings.Fields(css) {
		if r, g, b, ok := parseHex(field); ok {
			return tcell.NewRGBColor(r, g, b)
		}
	}
	return fallback
}

// parseHex reads the color channels of "#rrggbb" or "#rrggbbaa".
func parseHex(value string) (r, g, b int32, ok bool) {
	if (len(value) != 7 && len(value) != 9) || value[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(value[1:7], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	r = int32((v >> 16) & 0xFF)
	g = int32((v >> 8) & 0xFF)
	b = int32(v & 0xFF)
	return r, g, b, true
}
