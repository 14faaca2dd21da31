//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

func TestParseConfig(t *testing.T) {
	l := New(Options{APIKey: "test-key"})

	cfg, err := l.parseConfig(&execution.StepRequest{
		NodeID: "summarize",
		Config: json.RawMessage(`{"model":"gpt-4o","prompt":"Summarize: {{fetch.text}}","system":"Be brief.","temperature":0.2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "Summarize: {{fetch.text}}", cfg.Prompt)
	assert.Equal(t, "Be brief.", cfg.System)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.2, *cfg.Temperature)
}

func TestParseConfigDefaultsModel(t *testing.T) {
	l := New(Options{APIKey: "test-key", Model: "local-model"})

	cfg, err := l.parseConfig(&execution.StepRequest{
		NodeID: "summarize",
		Config: json.RawMessage(`{"prompt":"hi"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "local-model", cfg.Model)
	assert.Nil(t, cfg.Temperature)
	assert.Nil(t, cfg.MaxTokens)
}

func TestParseConfigRequiresPrompt(t *testing.T) {
	l := New(Options{APIKey: "test-key"})

	_, err := l.parseConfig(&execution.StepRequest{
		NodeID: "summarize",
		Config: json.RawMessage(`{"model":"gpt-4o"}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt")
}

func TestParseConfigRejectsMalformed(t *testing.T) {
	l := New(Options{APIKey: "test-key"})

	_, err := l.parseConfig(&execution.StepRequest{
		NodeID: "summarize",
		Config: json.RawMessage(`{"prompt": 7}`),
	})
	assert.Error(t, err)
}
