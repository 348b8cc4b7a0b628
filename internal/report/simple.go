package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/model"
)

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// quiet prints only the signature (or signed URL) per line.
	quiet bool

	// verbose adds query, user agent, engine and timing to each result.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithQuiet makes the writer print one value per result and nothing else:
// the signed URL when present, otherwise the bare signature. Failed results
// are skipped.
func WithQuiet(quiet bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.quiet = quiet
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the results in human-readable format.
func (w *SimpleWriter) Write(results []*model.SignResult) (int, error) {
	results = nonNil(results)

	var sb strings.Builder
	if w.quiet {
		for _, r := range results {
			switch {
			case r.Failed():
				continue
			case r.SignedURL != "":
				sb.WriteString(r.SignedURL)
			default:
				sb.WriteString(r.ABogus)
			}
			sb.WriteString("\n")
		}
		return w.output.Write([]byte(sb.String()))
	}

	for i, r := range results {
		if i > 0 {
			sb.WriteString(strings.Repeat("-", 70))
			sb.WriteString("\n")
		}
		w.writeResult(&sb, r)
	}

	if len(results) > 1 {
		w.writeSummary(&sb, model.Summarize(results))
	}

	return w.output.Write([]byte(sb.String()))
}

// writeResult writes one result block.
func (w *SimpleWriter) writeResult(sb *strings.Builder, r *model.SignResult) {
	sb.WriteString(fmt.Sprintf("URL:        %s\n", r.URL))
	if r.Failed() {
		sb.WriteString(fmt.Sprintf("Status:     ERROR - %s\n", r.Error))
		return
	}

	sb.WriteString(fmt.Sprintf("a_bogus:    %s\n", r.ABogus))
	if r.SignedURL != "" {
		sb.WriteString(fmt.Sprintf("Signed URL: %s\n", r.SignedURL))
	}
	if r.MsToken != "" {
		sb.WriteString(fmt.Sprintf("ms_token:   %s\n", r.MsToken))
	}

	if w.verbose {
		sb.WriteString(fmt.Sprintf("Query:      %s\n", r.Query))
		sb.WriteString(fmt.Sprintf("User-Agent: %s\n", r.UserAgent))
		sb.WriteString(fmt.Sprintf("Engine:     %s\n", r.Engine))
		sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", formatElapsed(r.Elapsed)))
	}
}

// writeSummary writes the batch totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s model.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total: %d  Succeeded: %d  Failed: %d\n", s.Total, s.Succeeded, s.Failed))
}

// WriteHistory outputs history entries, one line each.
func (w *SimpleWriter) WriteHistory(entries []database.HistoryEntry) (int, error) {
	var sb strings.Builder

	if len(entries) == 0 {
		sb.WriteString("No signing history\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, e := range entries {
		status := "ok"
		if e.Failed() {
			status = "error: " + e.Error
		}
		sb.WriteString(fmt.Sprintf("%5d  %s  %-6s %-16s %s  %s\n",
			e.ID,
			e.Timestamp.Format(timeFormat),
			e.Engine,
			orDash(e.Site),
			truncateString(e.URL, 60),
			status,
		))
		if w.verbose && !e.Failed() {
			sb.WriteString(fmt.Sprintf("       a_bogus: %s  ua: %s  elapsed: %s\n",
				e.ABogus, orDash(e.UserAgentHash), formatElapsed(e.Elapsed)))
		}
	}

	return w.output.Write([]byte(sb.String()))
}
