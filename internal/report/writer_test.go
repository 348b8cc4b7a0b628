package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/model"
)

// createTestResults returns one signed result and one failed result.
func createTestResults() []*model.SignResult {
	ok := model.NewSignResult("https://www.douyin.com/aweme/v1/web/aweme/detail/?aweme_id=1", "test-ua", "goja")
	ok.Query = "aweme_id=1"
	ok.ABogus = "Dj0Rg7SLDE5NgfUIqmAwzNnlH1B3"
	ok.SignedURL = ok.URL + "&a_bogus=Dj0Rg7SLDE5NgfUIqmAwzNnlH1B3"
	ok.MsToken = "abcDEF123"
	ok.Elapsed = 3 * time.Millisecond

	bad := model.NewSignResult("https://www.douyin.com/aweme/v1/web/aweme/detail/?aweme_id=2", "test-ua", "goja")
	bad.SetError(errors.New("generate_a_bogus failed: boom"))

	return []*model.SignResult{ok, bad}
}

func createTestHistory() []database.HistoryEntry {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []database.HistoryEntry{
		{
			ID:            2,
			URL:           "https://www.douyin.com/x/?a=1",
			Site:          "douyin.com",
			Query:         "a=1",
			UserAgentHash: "0123456789abcdef",
			ABogus:        "sig-2",
			Engine:        "goja",
			Elapsed:       2 * time.Millisecond,
			Timestamp:     ts.Add(time.Minute),
		},
		{
			ID:        1,
			URL:       "https://www.douyin.com/x/?a=0",
			Site:      "douyin.com",
			Engine:    "otto",
			Error:     "script threw",
			Timestamp: ts,
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes results and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"a_bogus:    Dj0Rg7SLDE5NgfUIqmAwzNnlH1B3",
			"Signed URL: https://www.douyin.com/",
			"ms_token:   abcDEF123",
			"Status:     ERROR - generate_a_bogus failed: boom",
			"Total: 2  Succeeded: 1  Failed: 1",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "User-Agent:") {
			t.Error("user agent should only be shown in verbose mode")
		}
	})

	t.Run("single result has no summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestResults()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Total:") {
			t.Error("did not expect a summary for a single result")
		}
	})

	t.Run("verbose adds details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"Query:      aweme_id=1", "User-Agent: test-ua", "Engine:     goja", "Elapsed:    3ms"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("quiet prints one value per successful result", func(t *testing.T) {
		t.Parallel()

		results := createTestResults()
		bare := model.NewSignResult("https://example.com/?q=1", "ua", "goja")
		bare.ABogus = "bare-sig"
		results = append(results, bare, nil)

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithQuiet(true)).Write(results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := results[0].SignedURL + "\nbare-sig\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"douyin.com", "error: script threw", "a_bogus: sig-2", "ua: 0123456789abcdef"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("writes empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No signing history") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes envelope with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if got.Version != "v1.2.3" {
			t.Errorf("Version = %q", got.Version)
		}
		if got.Summary.Total != 2 || got.Summary.Succeeded != 1 || got.Summary.Failed != 1 {
			t.Errorf("Summary = %+v", got.Summary)
		}
		if len(got.Results) != 2 || got.Results[0].ABogus != "Dj0Rg7SLDE5NgfUIqmAwzNnlH1B3" {
			t.Errorf("Results = %+v", got.Results)
		}
	})

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := strings.Count(buf.String(), "\n"); n != 1 {
			t.Errorf("expected 1 newline, got %d", n)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"summary\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), ">\t\"summary\"") {
			t.Errorf("expected custom indent, got %q", buf.String())
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d entries, want 2", len(got))
		}
		if got[0]["a_bogus"] != "sig-2" || got[0]["elapsed_ms"] != float64(2) {
			t.Errorf("entry 0 = %v", got[0])
		}
		if got[0]["timestamp"] != "2026-03-01T12:01:00.000Z" {
			t.Errorf("timestamp = %v", got[0]["timestamp"])
		}
		if got[1]["error"] != "script threw" {
			t.Errorf("entry 1 = %v", got[1])
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes results", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestResults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero byte count")
		}

		output := buf.String()
		for _, want := range []string{
			"# a_bogus Signing Report",
			"## Results",
			"| Succeeded |",
			"mermaid",
			"[!WARNING]",
			"<details>",
			"signed URL: https://www.douyin.com/",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("all succeeded", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestResults()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Errorf("expected tip alert\n%s", output)
		}
		if strings.Contains(output, "mermaid") {
			t.Error("did not expect a chart without failures")
		}
	})

	t.Run("all failed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestResults()[1:]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Errorf("expected caution alert\n%s", buf.String())
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Signing History", "| ID |", "douyin.com", "script threw"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := mw.Write(createTestResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}

	text.Reset()
	js.Reset()
	if _, err := mw.WriteHistory(createTestHistory()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive history output")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "shorter", input: "abc", maxLen: 10, want: "abc"},
		{name: "exact", input: "abcde", maxLen: 5, want: "abcde"},
		{name: "truncated", input: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "tiny limit", input: "abcdef", maxLen: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	if got := formatElapsed(0); got != "-" {
		t.Errorf("formatElapsed(0) = %q", got)
	}
	if got := formatElapsed(1500*time.Microsecond + 300*time.Nanosecond); got != "1.5ms" {
		t.Errorf("formatElapsed = %q, want 1.5ms", got)
	}
}
