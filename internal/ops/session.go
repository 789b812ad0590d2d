package ops

import (
	"database/sql"
	"sync"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/buffer"
	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/db"
)

// Session is a live editing context: stored documents opened into a
// workspace, with a manager keeping the active document's markers current.
//
// Session operations are serialized, so each reply describes a single
// install.
type Session struct {
	mu  sync.Mutex
	db  *sql.DB
	cfg *config.Config
	ws  *buffer.Workspace
	mgr *annotate.Manager
}

// NewSession creates a session with nothing open.
func NewSession(database *sql.DB, cfg *config.Config) *Session {
	ws := buffer.NewWorkspace()
	mgr := annotate.NewManager(ws, cfg.AnnotateOptions())
	ws.Attach(mgr)
	return &Session{db: database, cfg: cfg, ws: ws, mgr: mgr}
}

// SessionDocument describes one open document.
type SessionDocument struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SessionOutput is a snapshot of the session after an operation.
type SessionOutput struct {
	ActiveID    string            `json:"active_id,omitempty"`
	Documents   []SessionDocument `json:"documents"`
	Generation  uint64            `json:"generation"`
	Skipped     int               `json:"skipped"`
	Decorations int               `json:"decorations"`
	Markers     []annotate.Marker `json:"markers"`
}

// SessionOpenInput addresses a stored document to open and activate.
type SessionOpenInput struct {
	ID   string
	Name string
}

// Open loads a stored document into the workspace and makes it active.
// A document that is already open is switched to without reloading.
func (s *Session) Open(input SessionOpenInput) (*SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := getRecord(s.db, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	if _, ok := s.ws.Get(rec.ID); ok {
		if _, err := s.ws.Switch(rec.ID); err != nil {
			return nil, err
		}
	} else {
		s.ws.Open(buffer.NewDocument(rec.ID, rec.NameRaw, rec.Text))
	}
	return s.snapshot(), nil
}

// SessionEditInput replaces a stored document's text.
type SessionEditInput struct {
	ID   string
	Name string
	Text string
}

// Edit persists new text and, if the document is open, updates the
// workspace so the manager rescans it.
func (s *Session) Edit(input SessionEditInput) (*SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chars, err := checkSize(s.cfg, input.Text)
	if err != nil {
		return nil, err
	}
	rec, err := getRecord(s.db, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	rec.Text = input.Text
	rec.TextChars = chars
	if err := db.UpdateText(s.db, rec); err != nil {
		return nil, err
	}

	if _, ok := s.ws.Get(rec.ID); ok {
		if _, err := s.ws.Edit(rec.ID, input.Text); err != nil {
			return nil, err
		}
	}
	return s.snapshot(), nil
}

// SessionCloseInput addresses an open document to close.
type SessionCloseInput struct {
	ID   string
	Name string
}

// Close removes a document from the workspace. The stored copy is kept.
func (s *Session) Close(input SessionCloseInput) (*SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := getRecord(s.db, input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ws.Close(rec.ID); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Snapshot reports the open documents and the live marker set.
func (s *Session) Snapshot() *SessionOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() *SessionOutput {
	set := s.mgr.Current()
	active := s.ws.ActiveDocument()

	out := &SessionOutput{
		Documents:   []SessionDocument{},
		Generation:  set.Generation,
		Skipped:     set.Skipped,
		Decorations: len(s.ws.Decorations()),
		Markers:     set.Markers,
	}
	if out.Markers == nil {
		out.Markers = []annotate.Marker{}
	}
	if active != nil {
		out.ActiveID = active.ID()
	}
	for _, doc := range s.ws.Documents() {
		out.Documents = append(out.Documents, SessionDocument{
			ID:     doc.ID(),
			Name:   doc.Name(),
			Active: doc.ID() == out.ActiveID,
		})
	}
	return out
}
