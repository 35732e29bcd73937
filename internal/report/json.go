package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/storeprofile/internal/model"
)

// JSONWriter outputs profiles in JSON format.
// Every optional section is present, empty sections encode as {}.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the profile in JSON format.
func (w *JSONWriter) Write(profile *model.StoreProfile) (int, error) {
	return w.writeJSON(profile)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONRunReport wraps a profile with metadata about the run that built it.
type JSONRunReport struct {
	// Version is the storeprofile version that generated this report.
	Version string `json:"version"`

	// RunID identifies the run in the history database.
	RunID string `json:"run_id"`

	// Sources tells which sources succeeded, failed or were skipped.
	Sources []model.SourceResult `json:"sources"`

	// Profile is the store profile.
	Profile *model.StoreProfile `json:"profile"`
}

// WriteRun outputs the profile of run wrapped with the run metadata.
func (w *JSONWriter) WriteRun(run *model.Run, version string) (int, error) {
	return w.writeJSON(&JSONRunReport{
		Version: version,
		RunID:   run.ID,
		Sources: run.Sources(),
		Profile: run.Profile,
	})
}
