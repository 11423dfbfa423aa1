package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		profile_json TEXT NOT NULL,
		token TEXT,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	CREATE TABLE IF NOT EXISTS conversations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_email TEXT NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(owner_email, id)
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_email, seq);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// UpsertSession creates or replaces a session record.
func (s *SQLiteStore) UpsertSession(ctx context.Context, session *domain.Session) error {
	profile, err := json.Marshal(session.Profile)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}

	var token interface{}
	if session.Token != "" {
		token = session.Token
	}

	query := `
	INSERT INTO sessions (id, profile_json, token, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		profile_json = excluded.profile_json,
		token = excluded.token,
		expires_at = excluded.expires_at`

	return shared.RetryOnConflict(ctx, s.retry, "upsert_session", func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.ID, string(profile), token,
			session.CreatedAt.UnixMilli(), unixMilliOrZero(session.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, profile_json, token, created_at, expires_at FROM sessions WHERE id = ?`

	var session domain.Session
	var profileJSON string
	var token sql.NullString
	var createdAt, expiresAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(&session.ID, &profileJSON, &token, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := json.Unmarshal([]byte(profileJSON), &session.Profile); err != nil {
		return nil, fmt.Errorf("decode session %s profile: %w: %v", id, ErrCorrupt, err)
	}
	session.Token = token.String
	session.CreatedAt = time.UnixMilli(createdAt)
	if expiresAt > 0 {
		session.ExpiresAt = time.UnixMilli(expiresAt)
	}

	return &session, nil
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	return shared.RetryOnConflict(ctx, s.retry, "delete_session", func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, s.retry, "delete_expired_sessions", func() error {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM sessions WHERE expires_at > 0 AND expires_at <= ?`, now.UnixMilli())
		if err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	return deleted, err
}

// AddConversation stores a conversation as owner's most recent one.
func (s *SQLiteStore) AddConversation(ctx context.Context, owner string, c *domain.Conversation) error {
	messages, err := encodeMessages(c.Messages)
	if err != nil {
		return err
	}

	// REPLACE deletes the old row, so the new row gets a fresh seq and sorts first.
	query := `
	INSERT OR REPLACE INTO conversations (owner_email, id, title, messages_json, created_at)
	VALUES (?, ?, ?, ?, ?)`

	return shared.RetryOnConflict(ctx, s.retry, "add_conversation", func() error {
		if _, err := s.db.ExecContext(ctx, query, owner, c.ID, c.Title, messages, c.CreatedAt); err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		return nil
	})
}

// GetConversation retrieves one conversation for owner.
func (s *SQLiteStore) GetConversation(ctx context.Context, owner, id string) (*domain.Conversation, error) {
	query := `
		SELECT id, title, messages_json, created_at
		FROM conversations WHERE owner_email = ? AND id = ?`

	c, err := scanConversation(s.db.QueryRowContext(ctx, query, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns owner's conversations, most recently added first.
func (s *SQLiteStore) ListConversations(ctx context.Context, owner string) ([]*domain.Conversation, error) {
	query := `
		SELECT id, title, messages_json, created_at
		FROM conversations WHERE owner_email = ? ORDER BY seq DESC`

	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close conversation rows", "error", closeErr)
		}
	}()

	conversations := make([]*domain.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			if errors.Is(err, ErrCorrupt) {
				slog.Warn("Skipping corrupt conversation", "owner", owner, "error", err)
				continue
			}
			return nil, err
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, nil
}

// UpdateConversation applies a partial update to a conversation.
func (s *SQLiteStore) UpdateConversation(ctx context.Context, owner, id string, upd domain.ConversationUpdate) (bool, error) {
	query := `UPDATE conversations SET title = COALESCE(?, title), messages_json = COALESCE(?, messages_json)
		WHERE owner_email = ? AND id = ?`

	var title interface{}
	if upd.Title != nil {
		title = *upd.Title
	}
	var messages interface{}
	if upd.Messages != nil {
		encoded, err := encodeMessages(upd.Messages)
		if err != nil {
			return false, err
		}
		messages = encoded
	}

	var found bool
	err := shared.RetryOnConflict(ctx, s.retry, "update_conversation", func() error {
		result, err := s.db.ExecContext(ctx, query, title, messages, owner, id)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		found = rows > 0
		return nil
	})
	return found, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	var messagesJSON string
	if err := row.Scan(&c.ID, &c.Title, &messagesJSON, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return nil, fmt.Errorf("decode conversation %s messages: %w: %v", c.ID, ErrCorrupt, err)
	}
	if c.Messages == nil {
		c.Messages = []domain.ChatMessage{}
	}
	return &c, nil
}

func encodeMessages(messages []domain.ChatMessage) (string, error) {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode conversation messages: %w", err)
	}
	return string(data), nil
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
