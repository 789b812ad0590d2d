package ops

import (
	"database/sql"
	"io"
	"path/filepath"
	"unicode/utf8"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// ImportInput contains parameters for ImportDocument.
type ImportInput struct {
	Path string
	Name string // default: the file's base name
	Mode StoreMode
}

// ImportDocument reads a file from disk and stores it as a document.
func ImportDocument(database *sql.DB, cfg *config.Config, input ImportInput) (*StoreOutput, error) {
	absPath, err := ValidateImportPath(input.Path, cfg)
	if err != nil {
		return nil, err
	}

	text, err := ReadTextFile(absPath, cfg)
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = filepath.Base(absPath)
	}
	return StoreDocument(database, cfg, StoreInput{Name: name, Text: text, Mode: input.Mode})
}

// ReadTextFile reads a UTF-8 file without following a final symlink,
// refusing anything larger than cfg.MaxDocumentChars allows.
func ReadTextFile(path string, cfg *config.Config) (string, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := err.(*errors.Error); ok {
			return "", err
		}
		return "", errors.NewInternal(err)
	}
	defer f.Close()

	r := io.Reader(f)
	limit := int64(-1)
	if cfg != nil && cfg.MaxDocumentChars > 0 {
		// A rune is at most 4 bytes; one extra byte detects overflow.
		limit = int64(cfg.MaxDocumentChars) * utf8.UTFMax
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if limit >= 0 && int64(len(data)) > limit {
		return "", errors.NewDocumentTooLarge(cfg.MaxDocumentChars, utf8.RuneCount(data))
	}
	if !utf8.Valid(data) {
		return "", errors.NewInvalidRequest("file is not valid UTF-8 text")
	}

	text := string(data)
	if _, err := checkSize(cfg, text); err != nil {
		return "", err
	}
	return text, nil
}
