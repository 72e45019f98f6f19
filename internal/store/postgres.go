// Package store provides storage backends for ShopAssist.
//
// This file implements a PostgreSQL-backed conversation store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/greenleafbv/shopassist/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a ConversationStore backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure the turns table exists
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Append adds one turn to the conversation.
func (s *PostgresStore) Append(ctx context.Context, conversationID string, role models.Role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (conversation_id, role, content) VALUES ($1, $2, $3)`,
		conversationID, string(role), content)
	if err != nil {
		slog.Error("PostgresStore Append failed", "error", err, "conversationID", conversationID)
		return fmt.Errorf("failed to insert turn for %s: %w", conversationID, err)
	}
	slog.Debug("PostgresStore Append succeeded", "conversationID", conversationID, "role", role)
	return nil
}

// Read returns up to limit turns in append order.
func (s *PostgresStore) Read(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	query := `SELECT role, content, created_at FROM conversation_turns WHERE conversation_id = $1 ORDER BY id`
	args := []any{conversationID}
	if limit > 0 {
		query = `SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM conversation_turns
			WHERE conversation_id = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("PostgresStore Read query failed", "error", err, "conversationID", conversationID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		var role string
		if err := rows.Scan(&role, &t.Content, &t.Timestamp); err != nil {
			slog.Error("PostgresStore Read scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		t.Role = models.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore Read rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	slog.Debug("PostgresStore Read succeeded", "conversationID", conversationID, "count", len(turns))
	return turns, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
