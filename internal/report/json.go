package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in the report envelope.
	version string
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

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the envelope written by JSONWriter.Write.
type JSONReport struct {
	// Version is the abogus version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary counts successes and failures.
	Summary model.Summary `json:"summary"`

	// Results holds one entry per signed URL in input order.
	Results []*model.SignResult `json:"results"`
}

// NewJSONReport wraps results with a summary.
func NewJSONReport(results []*model.SignResult, version string) *JSONReport {
	results = nonNil(results)
	return &JSONReport{
		Version: version,
		Summary: model.Summarize(results),
		Results: results,
	}
}

// Write outputs the results wrapped in a JSONReport.
func (w *JSONWriter) Write(results []*model.SignResult) (int, error) {
	return w.writeJSON(NewJSONReport(results, w.version))
}

// historyJSON is the on-wire form of a history entry.
type historyJSON struct {
	ID            int64  `json:"id"`
	Timestamp     string `json:"timestamp"`
	URL           string `json:"url"`
	Site          string `json:"site,omitempty"`
	Query         string `json:"query"`
	UserAgentHash string `json:"user_agent_hash,omitempty"`
	ABogus        string `json:"a_bogus,omitempty"`
	Engine        string `json:"engine"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	Error         string `json:"error,omitempty"`
}

// WriteHistory outputs history entries as a JSON array.
func (w *JSONWriter) WriteHistory(entries []database.HistoryEntry) (int, error) {
	out := make([]historyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyJSON{
			ID:            e.ID,
			Timestamp:     e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			URL:           e.URL,
			Site:          e.Site,
			Query:         e.Query,
			UserAgentHash: e.UserAgentHash,
			ABogus:        e.ABogus,
			Engine:        e.Engine,
			ElapsedMS:     e.Elapsed.Milliseconds(),
			Error:         e.Error,
		})
	}
	return w.writeJSON(out)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
