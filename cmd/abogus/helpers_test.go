package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// fixtureScript is a deterministic stand-in for a real signing script.
const fixtureScript = `
function generate_a_bogus(query, ua) {
	return "sig-" + query.length + "-" + ua.length;
}
`

// writeFixtureScript writes fixtureScript into dir and returns its path.
func writeFixtureScript(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "a_bogus.js")
	if err := os.WriteFile(path, []byte(fixtureScript), 0600); err != nil {
		t.Fatalf("failed to write fixture script: %v", err)
	}
	return path
}

// executeCommand runs the root command with args and returns stdout, stderr
// and the error.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
