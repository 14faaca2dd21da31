//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package step

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTP performs an outbound request. URL, headers and body are templates
// resolved against the context before the call.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates the handler. A nil client gets a default with a 30s
// timeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTP{client: client}
}

type httpConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Execute implements Handler.
func (h *HTTP) Execute(ctx context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	var cfg httpConfig
	if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
		return nil, fmt.Errorf("parse http config: %w", err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("http node %s: url is required", req.NodeID)
	}
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	url := execution.ResolveTemplate(req.Snapshot, cfg.URL)

	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(execution.ResolveTemplate(req.Snapshot, cfg.Body))
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	for name, value := range cfg.Headers {
		httpReq.Header.Set(name, execution.ResolveTemplate(req.Snapshot, value))
	}
	if cfg.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, truncate(string(raw), 256))
	}

	var decoded any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}
	return &execution.StepResult{Output: map[string]any{
		"status": resp.StatusCode,
		"body":   decoded,
	}}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
