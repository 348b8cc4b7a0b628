package report

import (
	"io"
	"time"

	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs signing results to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(results []*model.SignResult) (int, error)

	// WriteHistory outputs stored history entries, newest first.
	WriteHistory(entries []database.HistoryEntry) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the results to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(results []*model.SignResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(entries []database.HistoryEntry) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(entries)
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

// timeFormat is used for every timestamp in text and Markdown output.
const timeFormat = "2006-01-02 15:04:05 MST"

// formatElapsed rounds d for display.
func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Microsecond).String()
}

// nonNil drops nil results.
func nonNil(results []*model.SignResult) []*model.SignResult {
	out := make([]*model.SignResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
