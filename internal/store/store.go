// Package store provides storage backends for ShopAssist.
//
// It defines the conversation store consumed by the orchestrator and the
// ephemeral TTL key-value store consumed by the questionnaire engine, with
// in-memory implementations for tests and single-process deployments.
// Persistent backends live in sqlite.go, postgres.go and redis.go.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/greenleafbv/shopassist/internal/models"
)

// ConversationStore persists ordered conversation turns.
type ConversationStore interface {
	// Append adds one turn to the conversation, creating it if absent.
	Append(ctx context.Context, conversationID string, role models.Role, content string) error
	// Read returns up to limit turns in append order. A limit <= 0 returns
	// all turns. A missing conversation yields an empty slice, not an error.
	Read(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
}

// KVStore is a time-bounded key-value store for ephemeral state. Values past
// their TTL are treated as absent.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Opts holds configuration for persistent store constructors.
type Opts struct {
	DSN string
}

// Option configures a store constructor.
type Option func(*Opts)

// WithDSN sets the database DSN.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// InMemoryStore is a simple in-memory conversation store.
type InMemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]models.Turn
}

// NewInMemoryStore creates an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{turns: make(map[string][]models.Turn)}
}

// Append adds one turn to the conversation.
func (s *InMemoryStore) Append(ctx context.Context, conversationID string, role models.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[conversationID] = append(s.turns[conversationID], models.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	return nil
}

// Read returns up to limit turns in append order.
func (s *InMemoryStore) Read(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[conversationID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

type memoryKVEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryKV is a TTL key-value store backed by a map. Expired entries are
// dropped lazily on read.
type InMemoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryKVEntry
	now     func() time.Time
}

// NewInMemoryKV creates an empty in-memory TTL store.
func NewInMemoryKV() *InMemoryKV {
	return &InMemoryKV{entries: make(map[string]memoryKVEntry), now: time.Now}
}

// Get returns the value for key if present and not expired.
func (s *InMemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key. A ttl <= 0 stores without expiry.
func (s *InMemoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = memoryKVEntry{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *InMemoryKV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
