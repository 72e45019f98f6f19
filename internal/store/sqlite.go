// Package store provides storage backends for ShopAssist.
//
// This file implements an SQLite-backed conversation store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/greenleafbv/shopassist/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a ConversationStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Append adds one turn to the conversation.
func (s *SQLiteStore) Append(ctx context.Context, conversationID string, role models.Role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (conversation_id, role, content) VALUES (?, ?, ?)`,
		conversationID, string(role), content)
	if err != nil {
		slog.Error("SQLiteStore Append failed", "error", err, "conversationID", conversationID)
		return fmt.Errorf("failed to insert turn for %s: %w", conversationID, err)
	}
	slog.Debug("SQLiteStore Append succeeded", "conversationID", conversationID, "role", role)
	return nil
}

// Read returns up to limit turns in append order.
func (s *SQLiteStore) Read(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	query := `SELECT role, content, created_at FROM conversation_turns WHERE conversation_id = ? ORDER BY id`
	args := []any{conversationID}
	if limit > 0 {
		query = `SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM conversation_turns
			WHERE conversation_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore Read query failed", "error", err, "conversationID", conversationID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		var role string
		if err := rows.Scan(&role, &t.Content, &t.Timestamp); err != nil {
			slog.Error("SQLiteStore Read scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		t.Role = models.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore Read rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	slog.Debug("SQLiteStore Read succeeded", "conversationID", conversationID, "count", len(turns))
	return turns, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
