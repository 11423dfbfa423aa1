// Package session keeps signed-in profiles server side, keyed by an opaque
// cookie, and guards routes that need an active subscription.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/store"
)

// Store persists sessions. Get returns nil, nil for missing, expired or
// unreadable records.
type Store interface {
	Set(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteStore keeps sessions in the application database.
type SQLiteStore struct {
	repo   store.Repository
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSQLiteStore creates a session store over repo.
func NewSQLiteStore(repo store.Repository, clock clockwork.Clock, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{repo: repo, clock: clock, logger: logger}
}

func (s *SQLiteStore) Set(ctx context.Context, sess *domain.Session) error {
	return s.repo.UpsertSession(ctx, sess)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if errors.Is(err, store.ErrCorrupt) {
		s.logger.Warn("Discarding unreadable session", "error", err)
		if delErr := s.repo.DeleteSession(ctx, id); delErr != nil {
			s.logger.Warn("Failed to delete unreadable session", "error", delErr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Expired(s.clock.Now()) {
		return nil, nil
	}
	return sess, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

const redisKeyPrefix = "insurx:session:"

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	rdb    *redis.Client
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewRedisStore creates a session store over rdb.
func NewRedisStore(rdb *redis.Client, clock clockwork.Clock, logger *slog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, clock: clock, logger: logger}
}

func (s *RedisStore) Set(ctx context.Context, sess *domain.Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.clock.Now())
		if ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("Discarding unreadable session", "error", err)
		if delErr := s.Delete(ctx, id); delErr != nil {
			s.logger.Warn("Failed to delete unreadable session", "error", delErr)
		}
		return nil, nil
	}
	if sess.Expired(s.clock.Now()) {
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
