package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/db"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// StoreMode controls collision behavior.
type StoreMode string

const (
	StoreModeError   StoreMode = "error"   // default: fail on name collision
	StoreModeReplace StoreMode = "replace" // overwrite existing text
)

// StoreInput contains parameters for the StoreDocument operation.
type StoreInput struct {
	Name string // required
	Text string
	Mode StoreMode
}

// StoreOutput contains the result of StoreDocument.
type StoreOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Replaced bool   `json:"replaced"`
	Markers  int    `json:"markers"`
}

// StoreDocument saves text under a unique name.
func StoreDocument(database *sql.DB, cfg *config.Config, input StoreInput) (*StoreOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	chars, err := checkSize(cfg, input.Text)
	if err != nil {
		return nil, err
	}
	nameNorm := Normalize(name)
	markers := annotate.Build(detachedBuffer(input.Text), cfg.AnnotateOptions()).Len()

	existing, err := db.GetByName(database, nameNorm)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if input.Mode != StoreModeReplace {
			return nil, errors.NewNameAlreadyExists(name)
		}
		existing.Text = input.Text
		existing.TextChars = chars
		if err := db.UpdateText(database, existing); err != nil {
			return nil, err
		}
		return &StoreOutput{ID: existing.ID, Name: existing.NameRaw, Replaced: true, Markers: markers}, nil
	}

	id, err := newID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	rec := &db.Record{
		ID:        id,
		NameRaw:   name,
		NameNorm:  nameNorm,
		Text:      input.Text,
		TextChars: chars,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Insert(database, rec); err != nil {
		return nil, err
	}

	return &StoreOutput{ID: id, Name: name, Markers: markers}, nil
}

// FetchInput contains parameters for FetchDocument.
type FetchInput struct {
	ID          string
	Name        string
	IncludeText *bool // default: true
}

// FetchOutput is a stored document with freshly computed markers.
type FetchOutput struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Text      string            `json:"text,omitempty"`
	TextChars int               `json:"text_chars"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
	Skipped   int               `json:"skipped"`
	Markers   []annotate.Marker `json:"markers"`
}

// FetchDocument loads a document by ID or name and scans it.
func FetchDocument(database *sql.DB, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	rec, err := getRecord(database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	set := annotate.Build(detachedBuffer(rec.Text), cfg.AnnotateOptions())
	out := &FetchOutput{
		ID:        rec.ID,
		Name:      rec.NameRaw,
		Text:      rec.Text,
		TextChars: rec.TextChars,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Skipped:   set.Skipped,
		Markers:   set.Markers,
	}
	if input.IncludeText != nil && !*input.IncludeText {
		out.Text = ""
	}
	return out, nil
}

// ListInput contains parameters for ListDocuments.
type ListInput struct {
	Limit  int // default: 20, max: 100
	Offset int
}

// DocumentSummary is a list entry without text.
type DocumentSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TextChars int    `json:"text_chars"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListOutput contains the result of ListDocuments.
type ListOutput struct {
	Items      []DocumentSummary `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// ListDocuments returns stored documents, most recently updated first.
func ListDocuments(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	records, err := db.List(ctx, database, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.Count(ctx, database)
	if err != nil {
		return nil, err
	}

	items := make([]DocumentSummary, 0, len(records))
	for _, r := range records {
		items = append(items, DocumentSummary{
			ID:        r.ID,
			Name:      r.NameRaw,
			TextChars: r.TextChars,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// DeleteInput addresses a document by ID or name.
type DeleteInput struct {
	ID   string
	Name string
}

// DeleteOutput contains the result of DeleteDocument.
type DeleteOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

// DeleteDocument permanently removes a document.
func DeleteDocument(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	rec, err := getRecord(database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(database, rec.ID); err != nil {
		return nil, err
	}
	return &DeleteOutput{ID: rec.ID, Name: rec.NameRaw, Deleted: true}, nil
}

func getRecord(database *sql.DB, id, name string) (*db.Record, error) {
	addr, err := ValidateAddress(id, name)
	if err != nil {
		return nil, err
	}
	if addr.ByID {
		return db.GetByID(database, addr.ID)
	}
	return db.GetByName(database, addr.Name)
}

func newID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
