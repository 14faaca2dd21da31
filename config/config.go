//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads engine configuration from a YAML file with .env
// bootstrap and environment variable overrides. Every field has a working
// default so a zero-config start is valid.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`
	// MaxConcurrent, when positive, caps every run's concurrency
	// regardless of what each graph declares. Zero keeps the per-graph
	// caps.
	MaxConcurrent int `yaml:"max_concurrent"`
	// ServerAddr is the HTTP API bind address.
	ServerAddr string `yaml:"server_addr"`
	// RedisURL enables the Redis-backed credit ledger when set.
	RedisURL string `yaml:"redis_url"`
	// OpenAIAPIKey authenticates llm steps.
	OpenAIAPIKey string `yaml:"openai_api_key"`
	// OpenAIBaseURL points llm steps at a compatible endpoint.
	OpenAIBaseURL string `yaml:"openai_base_url"`
}

func defaults() *Config {
	return &Config{
		LogLevel:   "info",
		ServerAddr: ":8080",
	}
}

// Load reads configuration in ascending precedence: defaults, the YAML file
// at path, then environment variables. A missing file is not an error; a
// .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Best effort: running without a .env file is normal.
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("max_concurrent must not be negative, got %d", cfg.MaxConcurrent)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FLOWMAESTRO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FLOWMAESTRO_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("FLOWMAESTRO_SERVER_ADDR"); v != "" {
		c.ServerAddr = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
}
