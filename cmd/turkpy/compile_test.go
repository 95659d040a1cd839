// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpTokens(t *testing.T) {
	var buf bytes.Buffer
	n, err := dumpTokens(&buf, "a.tr", []byte("// not\nyazdır(x)"), false, false)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "a.tr:2:1:")
	assert.Contains(t, lines[0], `"yazdır"`)
	assert.Contains(t, lines[4], "end of input")
}

func TestDumpTokens_KeywordsAndTrivia(t *testing.T) {
	var buf bytes.Buffer
	_, err := dumpTokens(&buf, "a.tr", []byte("// not\nyazdır(x)"), true, true)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"// not"`)
	assert.Contains(t, out, `"yazdır"`)
	assert.NotContains(t, out, `"x"`)
}

func TestDumpTokens_LexError(t *testing.T) {
	var buf bytes.Buffer
	_, err := dumpTokens(&buf, "a.tr", []byte("x = @"), false, false)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestCmdLex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.tr")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	var out bytes.Buffer
	cmd := cmdLex()
	cmd.SetArgs([]string{path})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 4, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), "prog.tr:1:5:")
}
