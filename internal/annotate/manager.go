package annotate

import (
	"log"
	"sync"

	"github.com/GosuCode/oklch-color-preview/internal/color"
	"github.com/GosuCode/oklch-color-preview/internal/scan"
)

// Buffer is the read side of a host text buffer.
type Buffer interface {
	ID() string
	Text() string
	// PositionAt translates a byte offset into a display position.
	PositionAt(offset int) Position
}

// Host is the environment that displays markers.
type Host interface {
	// Active returns the buffer currently shown, if any.
	Active() (Buffer, bool)
	// Install replaces whatever the host is displaying with set and
	// releases every resource held for the previously installed set.
	Install(set *MarkerSet) error
}

// Options controls how markers are styled.
type Options struct {
	LightBorder      string
	DarkBorder       string
	OutOfGamutBorder string

	// LuminanceThreshold is the average-channel value below which a swatch
	// is considered dark and gets the light border.
	LuminanceThreshold float64
}

// DefaultOptions returns the stock border styles.
func DefaultOptions() Options {
	return Options{
		LightBorder:        "1px solid #cccccc",
		DarkBorder:         "1px solid #333333",
		OutOfGamutBorder:   "1px dashed #ff3b30",
		LuminanceThreshold: 128,
	}
}

// Manager owns the live MarkerSet. Triggers are serialized, so a rescan
// always runs to completion and replaces the previous set before the next
// one starts.
type Manager struct {
	mu         sync.Mutex
	host       Host
	opts       Options
	live       *MarkerSet
	generation uint64
}

// NewManager creates a Manager bound to host. Zero-valued option fields fall
// back to DefaultOptions.
func NewManager(host Host, opts Options) *Manager {
	def := DefaultOptions()
	if opts.LightBorder == "" {
		opts.LightBorder = def.LightBorder
	}
	if opts.DarkBorder == "" {
		opts.DarkBorder = def.DarkBorder
	}
	if opts.OutOfGamutBorder == "" {
		opts.OutOfGamutBorder = def.OutOfGamutBorder
	}
	if opts.LuminanceThreshold == 0 {
		opts.LuminanceThreshold = def.LuminanceThreshold
	}
	return &Manager{
		host: host,
		opts: opts,
		live: &MarkerSet{},
	}
}

// Rescan builds a fresh MarkerSet for buf without installing it.
func (m *Manager) Rescan(buf Buffer) *MarkerSet {
	return Build(buf, m.opts)
}

// Build scans buf and returns its markers in source order. Literals whose
// components do not parse are counted in Skipped and produce no marker.
func Build(buf Buffer, opts Options) *MarkerSet {
	set := &MarkerSet{BufferID: buf.ID(), Markers: []Marker{}}

	for _, lit := range scan.Find(buf.Text()) {
		rgb := color.Convert(lit.Value())
		if !rgb.Valid {
			set.Skipped++
			continue
		}

		border, borderCSS := pickBorder(rgb, opts)
		set.Markers = append(set.Markers, Marker{
			Range: Range{
				Start: buf.PositionAt(lit.Start),
				End:   buf.PositionAt(lit.End),
			},
			Offsets:   Offsets{Start: lit.Start, End: lit.End},
			Source:    lit.Text,
			Swatch:    rgb.CSS(),
			Hex:       rgb.Hex(),
			Border:    border,
			BorderCSS: borderCSS,
			InGamut:   rgb.InGamut,
		})
	}

	return set
}

// pickBorder chooses a contrasting border; out-of-gamut colors always get
// the warning border.
func pickBorder(rgb color.RGB, opts Options) (Border, string) {
	if !rgb.InGamut {
		return BorderOutOfGamut, opts.OutOfGamutBorder
	}
	if rgb.Luminance() < opts.LuminanceThreshold {
		return BorderLight, opts.LightBorder
	}
	return BorderDark, opts.DarkBorder
}

// Refresh rescans the host's active buffer and installs the result.
// With no active buffer the live set is replaced by an empty one.
func (m *Manager) Refresh() *MarkerSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.host.Active()
	if !ok {
		return m.install(&MarkerSet{Markers: []Marker{}})
	}
	return m.install(m.Rescan(buf))
}

// OnBufferChanged handles a text change in buf. Changes to buffers other
// than the active one are ignored.
func (m *Manager) OnBufferChanged(buf Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, ok := m.host.Active()
	if !ok || active.ID() != buf.ID() {
		return
	}
	m.install(m.Rescan(active))
}

// OnActiveBufferSwitched handles the host switching to buf. The host's
// active buffer is read again under the lock, so an edit or a later switch
// that lands before this call is not undone by a scan of buf's old text.
// buf is used only when the host reports nothing active.
func (m *Manager) OnActiveBufferSwitched(buf Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if active, ok := m.host.Active(); ok {
		buf = active
	}
	if buf == nil {
		m.install(&MarkerSet{Markers: []Marker{}})
		return
	}
	m.install(m.Rescan(buf))
}

// Current returns the live MarkerSet.
func (m *Manager) Current() *MarkerSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// install makes set the live set. A host failure is logged and does not
// keep the stale set alive. Callers must hold m.mu.
func (m *Manager) install(set *MarkerSet) *MarkerSet {
	m.generation++
	set.Generation = m.generation

	prev := m.live
	if err := m.host.Install(set); err != nil {
		log.Printf("annotate: install markers for buffer %q: %v", set.BufferID, err)
	}
	prev.released = true
	m.live = set

	return set
}
