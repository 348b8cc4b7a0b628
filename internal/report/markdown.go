package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the results in Markdown format.
func (w *MarkdownWriter) Write(results []*model.SignResult) (int, error) {
	results = nonNil(results)
	summary := model.Summarize(results)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, results, summary)
	w.writeResults(md, results)
	w.writeSignedURLs(md, results)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title, the summary table and an alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, results []*model.SignResult, summary model.Summary) {
	md.H1("a_bogus Signing Report")
	md.PlainText("")

	engine := "-"
	generated := time.Now()
	if len(results) > 0 {
		engine = results[0].Engine
		generated = results[0].SignedAt
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Date", generated.Format(timeFormat)},
			{"Engine", engine},
			{"Total", strconv.Itoa(summary.Total)},
			{"Succeeded", strconv.Itoa(summary.Succeeded)},
			{"Failed", strconv.Itoa(summary.Failed)},
		},
	})
	md.PlainText("")

	if summary.Failed > 0 && summary.Total > 1 {
		w.writePieChart(md, summary)
	}

	switch {
	case summary.Total == 0:
		md.Note("No URLs were signed.")
	case summary.Failed == summary.Total:
		md.Cautionf("All %d signing call(s) failed.", summary.Failed)
	case summary.Failed > 0:
		md.Warningf("%d of %d signing call(s) failed.", summary.Failed, summary.Total)
	default:
		md.Tip("All URLs were signed.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of succeeded and failed calls.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Signing Results"),
		piechart.WithShowData(true),
	)
	if summary.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(summary.Succeeded))
	}
	chart.LabelAndIntValue("Failed", uint64(summary.Failed))

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResults writes one table row per result.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, results []*model.SignResult) {
	md.H2("Results")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		status := "✅ OK"
		if r.Failed() {
			status = "❌ " + truncateString(r.Error, 60)
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + truncateString(r.URL, 60) + "`",
			"`" + orDash(truncateString(r.ABogus, 40)) + "`",
			status,
			formatElapsed(r.Elapsed),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "a_bogus", "Status", "Elapsed"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSignedURLs writes full signatures, signed URLs and tokens in
// collapsible sections.
func (w *MarkdownWriter) writeSignedURLs(md *markdown.Markdown, results []*model.SignResult) {
	for i, r := range results {
		if r.Failed() {
			continue
		}
		body := "a_bogus: " + r.ABogus
		if r.SignedURL != "" {
			body += "\n\nsigned URL: " + r.SignedURL
		}
		if r.MsToken != "" {
			body += "\n\nms_token: " + r.MsToken
		}
		body += "\n\nUser-Agent: " + r.UserAgent
		md.Details("#"+strconv.Itoa(i+1)+" "+truncateString(r.URL, 60), body)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [abogus](https://github.com/nao1215/abogus)*")
}

// WriteHistory outputs history entries as a Markdown table.
func (w *MarkdownWriter) WriteHistory(entries []database.HistoryEntry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Signing History")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No signing history.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		status := "✅ OK"
		if e.Failed() {
			status = "❌ " + truncateString(e.Error, 40)
		}
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Format(timeFormat),
			orDash(e.Site),
			e.Engine,
			"`" + orDash(truncateString(e.ABogus, 32)) + "`",
			status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Time", "Site", "Engine", "a_bogus", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}
