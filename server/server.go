//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes workflow execution over HTTP: submit a graph
// definition, poll its status, or stream lifecycle events as SSE.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/flowmaestro/flowmaestro-go/event"
	"github.com/flowmaestro/flowmaestro-go/execution"
	"github.com/flowmaestro/flowmaestro-go/graph"
	"github.com/flowmaestro/flowmaestro-go/log"
)

// Runner is the execution entry point the server drives. Satisfied by
// *execution.Executor.
type Runner interface {
	Run(ctx context.Context, g *graph.Graph, inputs map[string]any, opts ...execution.RunOption) (*execution.Result, error)
}

// Server is the HTTP API over a Runner.
type Server struct {
	runner  Runner
	router  *mux.Router
	store   *store
	timeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRunTimeout bounds each submitted run's wall time. Zero disables the
// bound.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates the server and registers its routes.
func New(r Runner, opts ...Option) *Server {
	s := &Server{
		runner: r,
		router: mux.NewRouter(),
		store:  newStore(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the root handler, for mounting or for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	log.Infof("api server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/executions", s.handleCreateExecution).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/executions/{executionId}", s.handleGetExecution).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/executions/{executionId}/stream", s.handleStream).Methods(http.MethodGet)

	preflight := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	s.router.HandleFunc("/v1/executions", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/v1/executions/{executionId}", preflight).Methods(http.MethodOptions)
}

type createExecutionRequest struct {
	Graph   *graph.Definition `json:"graph"`
	Inputs  map[string]any    `json:"inputs"`
	Subject string            `json:"subject"`
	// Async detaches the run: the response carries the execution ID and
	// the result is fetched or streamed later.
	Async bool `json:"async"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req createExecutionRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if req.Graph == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "graph is required"})
		return
	}
	g, err := graph.Compile(req.Graph)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	executionID := uuid.NewString()
	runOpts := []execution.RunOption{execution.WithExecutionID(executionID)}
	if req.Subject != "" {
		runOpts = append(runOpts, execution.WithSubject(req.Subject))
	}
	if s.timeout > 0 {
		runOpts = append(runOpts, execution.WithTimeout(s.timeout))
	}

	if req.Async {
		pub := event.NewChannelPublisher(256)
		rec := s.store.create(executionID, pub)
		go func() {
			defer pub.Close()
			res, runErr := s.runner.Run(context.Background(), g, req.Inputs,
				append(runOpts, execution.WithRunPublisher(pub))...)
			s.store.finish(rec, res, runErr)
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{
			"execution_id": executionID,
			"status":       "running",
		})
		return
	}

	res, err := s.runner.Run(r.Context(), g, req.Inputs, runOpts...)
	switch {
	case errors.Is(err, execution.ErrExecutionCanceled):
		writeJSON(w, http.StatusOK, res)
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	case res.Error == execution.ReasonInsufficientBudget:
		writeJSON(w, http.StatusPaymentRequired, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["executionId"]
	rec, ok := s.store.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown execution %s", id)})
		return
	}
	writeJSON(w, http.StatusOK, rec.view())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["executionId"]
	rec, ok := s.store.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown execution %s", id)})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, open := <-rec.events():
			if !open {
				return
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				log.Errorf("marshal event %s: %v", ev.ID, err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
