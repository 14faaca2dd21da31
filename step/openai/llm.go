//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides the llm step kind backed by the OpenAI chat
// completions API or any compatible endpoint.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

const defaultModel = "gpt-4o-mini"

// tokensPerCredit converts reported token usage into credits.
const tokensPerCredit = 1000.0

// Options configure the LLM handler.
type Options struct {
	// APIKey authenticates the client. Falls back to OPENAI_API_KEY.
	APIKey string
	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string
	// Model is the default model when a node's config names none.
	Model string
	// ClientOptions are passed through to the underlying client.
	ClientOptions []openaiopt.RequestOption
}

// LLM executes llm nodes. The node config supplies the prompt and optional
// system message and model; prompt and system are templates resolved
// against the execution context.
type LLM struct {
	client       openai.Client
	defaultModel string
}

// New creates the handler.
func New(opts Options) *LLM {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	var clientOpts []openaiopt.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(opts.BaseURL))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &LLM{
		client:       openai.NewClient(clientOpts...),
		defaultModel: model,
	}
}

type llmConfig struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	System      string   `json:"system"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int64   `json:"maxTokens"`
}

func (l *LLM) parseConfig(req *execution.StepRequest) (*llmConfig, error) {
	var cfg llmConfig
	if len(req.Config) > 0 {
		if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse llm config: %w", err)
		}
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("llm node %s: prompt is required", req.NodeID)
	}
	if cfg.Model == "" {
		cfg.Model = l.defaultModel
	}
	return &cfg, nil
}

// Execute implements the step handler contract. Cost is the completion's
// total token usage converted to credits.
func (l *LLM) Execute(ctx context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	cfg, err := l.parseConfig(req)
	if err != nil {
		return nil, err
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if cfg.System != "" {
		messages = append(messages, openai.SystemMessage(
			execution.ResolveTemplate(req.Snapshot, cfg.System)))
	}
	messages = append(messages, openai.UserMessage(
		execution.ResolveTemplate(req.Snapshot, cfg.Prompt)))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(cfg.Model),
		Messages: messages,
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxTokens = openai.Int(*cfg.MaxTokens)
	}

	resp, err := l.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm node %s: %w", req.NodeID, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm node %s: empty completion", req.NodeID)
	}

	return &execution.StepResult{
		Output: map[string]any{
			"text":   resp.Choices[0].Message.Content,
			"model":  cfg.Model,
			"tokens": resp.Usage.TotalTokens,
		},
		Cost: float64(resp.Usage.TotalTokens) / tokensPerCredit,
	}, nil
}
