// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.tr")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRun_DumpAST(t *testing.T) {
	path := writeSource(t, "x = 1 + 2\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--dump-ast", path}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Empty(t, stderr.String())
	var doc map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, "Program", doc["type"])
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"), "document is a single line")
}

func TestRun_Transpile(t *testing.T) {
	path := writeSource(t, `yazdır("Merhaba")`)
	var stdout, stderr bytes.Buffer

	code := run([]string{path}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, "print(\"Merhaba\")\n", stdout.String())
}

func TestRun_Stdin(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-"}, strings.NewReader("x = doğru\n"), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, "x = True\n", stdout.String())
}

func TestRun_Diagnostics(t *testing.T) {
	path := writeSource(t, "eğer (x) {\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--dump-ast", path}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitDiagnostic, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "prog.tr:")
	assert.Contains(t, stderr.String(), "end of input")
}

func TestRun_UsageErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no file", []string{"--dump-ast"}},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.tr")}},
		{"two files", []string{"a.tr", "b.tr"}},
		{"unknown flag", []string{"--frobnicate", "a.tr"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, strings.NewReader(""), &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr.String(), "turkc:")
		})
	}
}
