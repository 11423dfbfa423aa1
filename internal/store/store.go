// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/insurx/insurx-web/internal/domain"
)

// ErrCorrupt indicates a stored record could not be decoded.
var ErrCorrupt = errors.New("corrupt record")

// Repository defines the interface for persisting sessions and conversations.
type Repository interface {
	// UpsertSession creates or replaces a session record.
	UpsertSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by ID. Returns nil, nil when absent.
	// A record that cannot be decoded yields an error wrapping ErrCorrupt.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes sessions whose expiry is at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// AddConversation stores a conversation for owner as the most recent one.
	// An existing conversation with the same ID is replaced and moved to the front.
	AddConversation(ctx context.Context, owner string, c *domain.Conversation) error

	// GetConversation retrieves one conversation. Returns nil, nil when absent.
	GetConversation(ctx context.Context, owner, id string) (*domain.Conversation, error)

	// ListConversations returns owner's conversations, most recently added first.
	ListConversations(ctx context.Context, owner string) ([]*domain.Conversation, error)

	// UpdateConversation applies a partial update. Unknown IDs are a no-op
	// and report found=false.
	UpdateConversation(ctx context.Context, owner, id string, upd domain.ConversationUpdate) (found bool, err error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
