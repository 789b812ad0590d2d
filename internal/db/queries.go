package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// Record is a stored document row.
type Record struct {
	ID        string
	NameRaw   string
	NameNorm  string
	Text      string
	TextChars int
	CreatedAt int64
	UpdatedAt int64
}

const recordColumns = `id, name_raw, name_norm, text, text_chars, created_at, updated_at`

// Insert stores a new document. A name collision returns NAME_ALREADY_EXISTS.
func Insert(db *sql.DB, r *Record) error {
	query := `INSERT INTO documents (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := db.Exec(query,
		r.ID, r.NameRaw, r.NameNorm, r.Text, r.TextChars, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewNameAlreadyExists(r.NameRaw)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a document by its ULID.
func GetByID(db *sql.DB, id string) (*Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM documents WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetByName retrieves a document by normalized name.
func GetByName(db *sql.DB, nameNorm string) (*Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM documents WHERE name_norm = ?`, nameNorm)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// List returns documents ordered by most recently updated, without text.
func List(ctx context.Context, db *sql.DB, limit, offset int) ([]Record, error) {
	query := `
		SELECT id, name_raw, name_norm, text_chars, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.NameRaw, &r.NameNorm, &r.TextChars, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return records, nil
}

// Count returns the number of stored documents.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateText replaces the text of an existing document and bumps updated_at.
func UpdateText(db *sql.DB, r *Record) error {
	now := time.Now().Unix()

	result, err := db.Exec(
		`UPDATE documents SET text = ?, text_chars = ?, updated_at = ? WHERE id = ?`,
		r.Text, r.TextChars, now, r.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(r.ID)
	}

	r.UpdatedAt = now
	return nil
}

// Delete permanently removes a document.
func Delete(db *sql.DB, id string) error {
	result, err := db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// scanRecord scans a single row into a Record.
func scanRecord(row *sql.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.NameRaw, &r.NameNorm, &r.Text, &r.TextChars, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
