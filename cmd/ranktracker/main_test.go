package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_ConfigLoadFailureExitsNonZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "load config failed")
}

func TestRun_InitFailureExitsNonZero(t *testing.T) {
	path := writeConfig(t, "logging:\n  development: false\n  level: error\ndb:\n  seed_file: /nonexistent/seed.json\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", path, "-once"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
}

func TestRun_OnceWithEmptyStore(t *testing.T) {
	path := writeConfig(t, "logging:\n  development: false\n  level: error\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", path, "-once"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var reports map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
	assert.Contains(t, reports, "keywords")
	assert.Contains(t, reports, "tracked_urls")
}

func TestRun_BadFlagExitsNonZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-unknown"}, &stdout, &stderr))
}
