// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdhender/turkpy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "turkc", cfg.Compiler.Command)
	assert.Equal(t, 10*time.Second, cfg.Compiler.Timeout())
	assert.Equal(t, "python3", cfg.Python.Command)
	assert.Equal(t, 4, cfg.Generator.Indent)
	assert.Equal(t, "kurucu", cfg.Generator.Constructor)
	assert.Equal(t, []string{".tr"}, cfg.Watch.Extensions)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	data := `
[compiler]
command = "/opt/turkc/bin/turkc --strict"
timeout_seconds = 3

[generator]
indent = 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	t.Setenv("TURKPY_PYTHON_COMMAND", "python3.12")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/turkc/bin/turkc --strict", cfg.Compiler.Command)
	assert.Equal(t, 3*time.Second, cfg.Compiler.Timeout())
	assert.Equal(t, 2, cfg.Generator.Indent)
	assert.Equal(t, "kurucu", cfg.Generator.Constructor, "unset keys keep their defaults")
	assert.Equal(t, "python3.12", cfg.Python.Command)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("[generator]\nindent = 0\n"), 0644))
	_, err := config.Load(path)
	assert.Error(t, err)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestWriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	cfg := config.Default()
	cfg.Database.Path = "örnekler.db"
	require.NoError(t, config.Write(path, cfg, false))
	assert.Error(t, config.Write(path, cfg, false), "existing file needs force")
	require.NoError(t, config.Write(path, cfg, true))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	assert.Equal(t, "", config.Find(nested))

	path := filepath.Join(root, config.FileName)
	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.Equal(t, path, config.Find(nested))
}
