package main

import (
	"strings"
	"testing"
)

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"abogus version ", "commit: ", "built: "} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got %q", want, stdout)
		}
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("expected non-empty version")
	}
	if getCommit() == "" {
		t.Error("expected non-empty commit")
	}
	if getDate() == "" {
		t.Error("expected non-empty date")
	}
}
