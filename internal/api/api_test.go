package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greenleafbv/shopassist/internal/assembler"
	"github.com/greenleafbv/shopassist/internal/auth"
	"github.com/greenleafbv/shopassist/internal/catalog"
	"github.com/greenleafbv/shopassist/internal/config"
	"github.com/greenleafbv/shopassist/internal/engine"
	"github.com/greenleafbv/shopassist/internal/knowledge"
	"github.com/greenleafbv/shopassist/internal/models"
	"github.com/greenleafbv/shopassist/internal/quiz"
	"github.com/greenleafbv/shopassist/internal/store"
)

func newTestServer() (*Server, *store.InMemoryStore) {
	cfg := &config.Config{AssistantTitle: "GreenLeaf assistent", Language: "nl", Tier: "standard"}
	convStore := store.NewInMemoryStore()
	kv := store.NewInMemoryKV()
	provider := catalog.NewInMemoryProvider(nil)
	base := knowledge.NewInMemoryBase(nil, nil)
	quizEngine := quiz.NewEngine(kv, provider, quiz.DefaultSteps(), nil)
	eng := engine.New(cfg, convStore, kv, provider, base, quizEngine, assembler.New(provider), nil, auth.NewStaticAuthorizer(models.TierStandard))
	return NewServer(":0", eng, convStore), convStore
}

func testMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("GET /conversations/{id}", s.conversationHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

func TestChatHandler(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	body, _ := json.Marshal(models.InboundMessage{ConversationID: "c1", Text: "hallo"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out models.OutboundMessage
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !out.Success || out.ConversationID != "c1" || out.Message == "" {
		t.Errorf("unexpected envelope %+v", out)
	}
}

func TestChatHandlerInvalidJSON(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(models.APIStatusError) {
		t.Errorf("expected error status, got %q", resp.Status)
	}
}

func TestChatHandlerEmptyText(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"text":""}`)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	// Validation failures are conversational, not transport errors.
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out models.OutboundMessage
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Success {
		t.Error("expected success=false for empty text")
	}
}

func TestConversationHandler(t *testing.T) {
	server, convStore := newTestServer()
	mux := testMux(server)

	ctx := context.Background()
	if err := convStore.Append(ctx, "c1", models.RoleUser, "hallo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := convStore.Append(ctx, "c1", models.RoleAssistant, "Hallo!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Status string              `json:"status"`
		Result models.Conversation `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.ID != "c1" || len(resp.Result.Turns) != 2 {
		t.Errorf("unexpected conversation %+v", resp.Result)
	}
}

func TestConversationHandlerNotFound(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	req := httptest.NewRequest(http.MethodGet, "/conversations/onbekend", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestConversationHandlerInvalidLimit(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1?limit=nul", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	server, _ := newTestServer()
	mux := testMux(server)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(models.APIStatusOK) || resp.Message != "healthy" {
		t.Errorf("unexpected health response %+v", resp)
	}
}
