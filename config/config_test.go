//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.MaxConcurrent)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\nmax_concurrent: 8\nserver_addr: \":9999\"\nredis_url: redis://localhost:6379/0\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxConcurrent)
	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nmax_concurrent: 8\n"), 0o600))

	t.Setenv("FLOWMAESTRO_LOG_LEVEL", "warn")
	t.Setenv("FLOWMAESTRO_MAX_CONCURRENT", "2")
	t.Setenv("FLOWMAESTRO_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, ":7070", cfg.ServerAddr)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNegativeConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent: -1\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
