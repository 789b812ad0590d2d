package ops

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address represents a validated document address.
type Address struct {
	ByID bool
	ID   string
	Name string // normalized
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Exactly one of id or name must be given.
func ValidateAddress(id, name string) (*Address, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	if id != "" && name != "" {
		return nil, errors.NewAmbiguousAddress()
	}
	if id == "" && name == "" {
		return nil, errors.NewInvalidRequest("must specify either id or name")
	}

	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}
	return &Address{Name: Normalize(name)}, nil
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases, and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// checkSize enforces cfg.MaxDocumentChars.
func checkSize(cfg *config.Config, text string) (int, error) {
	chars := CountChars(text)
	if cfg != nil && cfg.MaxDocumentChars > 0 && chars > cfg.MaxDocumentChars {
		return chars, errors.NewDocumentTooLarge(cfg.MaxDocumentChars, chars)
	}
	return chars, nil
}
