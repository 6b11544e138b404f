// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bering.yaml")

	cfg, err := loadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:12310", cfg.Server.BaseURL)
	assert.Equal(t, 60, cfg.Server.TimeoutSeconds)
	assert.Equal(t, "live", cfg.Defaults.Mode)
	assert.FileExists(t, path)
}

func TestLoadFrom_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bering.yaml")
	content := "server:\n  base_url: http://reasoner:9999\n  api_key: sekrit\ndefaults:\n  mode: dryrun\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://reasoner:9999", cfg.Server.BaseURL)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, "dryrun", cfg.Defaults.Mode)
}

func TestLoadFrom_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bering.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := loadFrom(path)
	assert.ErrorContains(t, err, "failed to parse the config file")
}
