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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

func TestHTTPResolvesTemplatesAndDecodesJSON(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 42}`))
	}))
	defer srv.Close()

	snap := snapshotWith(map[string]any{
		"auth":  map[string]any{"token": "secret"},
		"fetch": map[string]any{"userId": float64(7)},
	})
	cfg, _ := json.Marshal(map[string]any{
		"url":     srv.URL + "/users/{{fetch.userId}}",
		"method":  "post",
		"headers": map[string]string{"Authorization": "Bearer {{auth.token}}"},
		"body":    `{"user": {{fetch.userId}}}`,
	})

	res, err := NewHTTP(srv.Client()).Execute(context.Background(), &execution.StepRequest{
		NodeID:   "call",
		Snapshot: snap,
		Config:   cfg,
	})
	require.NoError(t, err)

	assert.Equal(t, "/users/7", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.JSONEq(t, `{"user": 7}`, gotBody)

	out, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, out["status"])
	assert.Equal(t, map[string]any{"id": float64(42)}, out["body"])
}

func TestHTTPDefaultsToGet(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	res, err := NewHTTP(srv.Client()).Execute(context.Background(), &execution.StepRequest{
		Config: json.RawMessage(`{"url":"` + srv.URL + `"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)

	out := res.Output.(map[string]any)
	assert.Equal(t, "plain text", out["body"])
}

func TestHTTPErrorStatusFailsTheStep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.Client()).Execute(context.Background(), &execution.StepRequest{
		Config: json.RawMessage(`{"url":"` + srv.URL + `/missing"}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPRequiresURL(t *testing.T) {
	_, err := NewHTTP(nil).Execute(context.Background(), &execution.StepRequest{
		NodeID: "call",
		Config: json.RawMessage(`{"method":"GET"}`),
	})
	assert.Error(t, err)
}

func TestHTTPHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTP(srv.Client()).Execute(ctx, &execution.StepRequest{
		Config: json.RawMessage(`{"url":"` + srv.URL + `"}`),
	})
	assert.Error(t, err)
}
