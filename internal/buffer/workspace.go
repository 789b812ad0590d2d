package buffer

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// Decoration is a host-side handle for one displayed marker.
type Decoration struct {
	Handle   string          `json:"handle"`
	BufferID string          `json:"buffer_id"`
	Marker   annotate.Marker `json:"marker"`
}

// Listener receives the document a change or switch event refers to.
type Listener func(doc *Document)

// Workspace holds open documents, the active one, and the decorations
// installed for it. It implements annotate.Host.
//
// Listeners run on the caller's goroutine after the workspace lock is
// released, so they may call back into the workspace.
type Workspace struct {
	mu          sync.Mutex
	docs        map[string]*Document
	order       []string
	active      string
	decorations []Decoration
	released    int

	onChange []Listener
	onSwitch []Listener
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{docs: make(map[string]*Document)}
}

// OnDidChangeText registers fn for text edits to any open document.
func (w *Workspace) OnDidChangeText(fn Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// OnDidChangeActive registers fn for active document switches. fn receives
// nil when the last document is closed.
func (w *Workspace) OnDidChangeActive(fn Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onSwitch = append(w.onSwitch, fn)
}

// Open adds doc, replacing any open document with the same ID, and makes
// it active.
func (w *Workspace) Open(doc *Document) {
	w.mu.Lock()
	if _, ok := w.docs[doc.id]; !ok {
		w.order = append(w.order, doc.id)
	}
	w.docs[doc.id] = doc
	w.active = doc.id
	listeners := w.onSwitch
	w.mu.Unlock()

	notify(listeners, doc)
}

// Get returns the open document with id.
func (w *Workspace) Get(id string) (*Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[id]
	return doc, ok
}

// Documents returns open documents in the order they were opened.
func (w *Workspace) Documents() []*Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	docs := make([]*Document, 0, len(w.order))
	for _, id := range w.order {
		docs = append(docs, w.docs[id])
	}
	return docs
}

// Edit replaces the text of an open document.
func (w *Workspace) Edit(id, text string) (*Document, error) {
	w.mu.Lock()
	doc, ok := w.docs[id]
	if !ok {
		w.mu.Unlock()
		return nil, errors.NewNotFound(id)
	}
	doc = doc.with(text)
	w.docs[id] = doc
	listeners := w.onChange
	w.mu.Unlock()

	notify(listeners, doc)
	return doc, nil
}

// Switch makes an open document active.
func (w *Workspace) Switch(id string) (*Document, error) {
	w.mu.Lock()
	doc, ok := w.docs[id]
	if !ok {
		w.mu.Unlock()
		return nil, errors.NewNotFound(id)
	}
	w.active = id
	listeners := w.onSwitch
	w.mu.Unlock()

	notify(listeners, doc)
	return doc, nil
}

// Cycle activates the document delta positions away from the active one,
// wrapping around. It returns nil when nothing is open.
func (w *Workspace) Cycle(delta int) *Document {
	w.mu.Lock()
	if len(w.order) == 0 {
		w.mu.Unlock()
		return nil
	}
	idx := 0
	for i, id := range w.order {
		if id == w.active {
			idx = i
			break
		}
	}
	n := len(w.order)
	idx = ((idx+delta)%n + n) % n
	w.active = w.order[idx]
	doc := w.docs[w.active]
	listeners := w.onSwitch
	w.mu.Unlock()

	notify(listeners, doc)
	return doc
}

// Close removes a document. Closing the active document activates the
// most recently opened remaining one, or nothing.
func (w *Workspace) Close(id string) error {
	w.mu.Lock()
	if _, ok := w.docs[id]; !ok {
		w.mu.Unlock()
		return errors.NewNotFound(id)
	}
	delete(w.docs, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}

	if w.active != id {
		w.mu.Unlock()
		return nil
	}

	var next *Document
	w.active = ""
	if len(w.order) > 0 {
		w.active = w.order[len(w.order)-1]
		next = w.docs[w.active]
	}
	listeners := w.onSwitch
	w.mu.Unlock()

	notify(listeners, next)
	return nil
}

// Active implements annotate.Host.
func (w *Workspace) Active() (annotate.Buffer, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[w.active]
	if !ok {
		return nil, false
	}
	return doc, true
}

// ActiveDocument returns the active document, or nil.
func (w *Workspace) ActiveDocument() *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs[w.active]
}

// Install implements annotate.Host. Every previously issued decoration is
// released before handles for set are issued. A set for a document that is
// no longer open clears the display and reports NOT_FOUND.
func (w *Workspace) Install(set *annotate.MarkerSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.released += len(w.decorations)
	w.decorations = nil

	if set.BufferID == "" {
		return nil
	}
	if _, ok := w.docs[set.BufferID]; !ok {
		return errors.NewNotFound(set.BufferID)
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	ts := ulid.Timestamp(time.Now())
	decorations := make([]Decoration, 0, len(set.Markers))
	for _, m := range set.Markers {
		id, err := ulid.New(ts, entropy)
		if err != nil {
			return errors.NewInternal(err)
		}
		decorations = append(decorations, Decoration{
			Handle:   id.String(),
			BufferID: set.BufferID,
			Marker:   m,
		})
	}
	w.decorations = decorations
	return nil
}

// Decorations returns the decorations currently displayed.
func (w *Workspace) Decorations() []Decoration {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Decoration, len(w.decorations))
	copy(out, w.decorations)
	return out
}

// ReleasedCount returns how many decoration handles have been released.
func (w *Workspace) ReleasedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}

// Attach subscribes m to the workspace's change and switch events and
// installs markers for the current active document.
func (w *Workspace) Attach(m *annotate.Manager) {
	w.OnDidChangeText(func(doc *Document) {
		m.OnBufferChanged(doc)
	})
	w.OnDidChangeActive(func(doc *Document) {
		if doc == nil {
			m.OnActiveBufferSwitched(nil)
			return
		}
		m.OnActiveBufferSwitched(doc)
	})
	m.Refresh()
}

func notify(listeners []Listener, doc *Document) {
	for _, fn := range listeners {
		fn(doc)
	}
}
