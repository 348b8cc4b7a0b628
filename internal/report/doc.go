// Package report writes signing results and history listings.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown tables for sharing and documentation
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
