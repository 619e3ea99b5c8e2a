// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 32, cfg.Generate.Bytes)
	assert.Equal(t, 12, cfg.Generate.Factor)
	assert.Nil(t, cfg.Generate.Seed)
	assert.False(t, cfg.Solve.Optimize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "xorbreak.yaml", `
log:
  level: debug
  json: true
solve:
  optimize: true
  jobs: 3
render:
  footer: true
generate:
  factor: 16
  seed: 42
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.True(t, cfg.Solve.Optimize)
	assert.Equal(t, 3, cfg.Solve.Jobs)
	assert.True(t, cfg.Render.Footer)
	assert.Equal(t, 32, cfg.Generate.Bytes, "unset keys keep defaults")
	assert.Equal(t, 16, cfg.Generate.Factor)
	require.NotNil(t, cfg.Generate.Seed)
	assert.Equal(t, uint64(42), *cfg.Generate.Seed)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "solve:\n  turbo: true\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"factor too small", "generate:\n  factor: 4\n"},
		{"negative jobs", "solve:\n  jobs: -1\n"},
		{"zero bytes", "generate:\n  bytes: 0\n"},
		{"not yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "bad.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
