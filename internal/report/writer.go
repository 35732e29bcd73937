package report

import (
	"io"

	"github.com/nao1215/storeprofile/internal/model"
)

// Writer defines the interface for profile output.
type Writer interface {
	// Write outputs the profile to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(profile *model.StoreProfile) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the profile to all configured Writers.
// Returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(profile *model.StoreProfile) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(profile)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString shortens s to maxLen runes, ending in an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
