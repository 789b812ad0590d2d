package ops

import (
	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/buffer"
	"github.com/GosuCode/oklch-color-preview/internal/config"
)

// ScanInput contains parameters for the Scan operation.
type ScanInput struct {
	Name string // optional, used only for reporting
	Text string
}

// ScanOutput is a one-shot marker set for a piece of text.
type ScanOutput struct {
	Name    string            `json:"name,omitempty"`
	Count   int               `json:"count"`
	Skipped int               `json:"skipped"`
	Markers []annotate.Marker `json:"markers"`
}

// Scan computes markers for text without touching any live session.
func Scan(cfg *config.Config, input ScanInput) (*ScanOutput, error) {
	if _, err := checkSize(cfg, input.Text); err != nil {
		return nil, err
	}

	set := annotate.Build(buffer.NewDocument("", input.Name, input.Text), cfg.AnnotateOptions())

	return &ScanOutput{
		Name:    input.Name,
		Count:   set.Len(),
		Skipped: set.Skipped,
		Markers: set.Markers,
	}, nil
}

// detachedBuffer wraps text that is not open in any workspace.
func detachedBuffer(text string) *buffer.Document {
	return buffer.NewDocument("", "", text)
}
