// Package api provides the HTTP surface of the assistant engine.
//
// It exposes a chat endpoint that drives the message pipeline, a
// conversation history endpoint and a health check. Transport concerns stop
// here; all conversational behavior lives in the engine package.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/greenleafbv/shopassist/internal/engine"
	"github.com/greenleafbv/shopassist/internal/store"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	// maxRequestBody bounds the chat request body.
	maxRequestBody = 1 << 20
)

// Server hosts the HTTP endpoints over the engine and conversation store.
type Server struct {
	addr      string
	engine    *engine.Engine
	convStore store.ConversationStore
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, eng *engine.Engine, convStore store.ConversationStore) *Server {
	return &Server{addr: addr, engine: eng, convStore: convStore}
}

// Run starts the HTTP server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("GET /conversations/{id}", s.conversationHandler)
	mux.HandleFunc("GET /health", s.healthHandler)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}
