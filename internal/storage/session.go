package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/local-legends/internal/logger"
	"github.com/jwebster45206/local-legends/pkg/state"
)

// Session operations (Redis-backed)

func sessionKey(id string) string {
	return "session:" + id
}

// SaveSession stores the session and restarts its TTL.
func (r *RedisStorage) SaveSession(ctx context.Context, s *state.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	s.Touch(time.Now())

	data, err := json.Marshal(s)
	if err != nil {
		logger.WithError(r.logger, err).Error("Failed to marshal session", "session_id", s.ID)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	cmd := r.client.Set(ctx, sessionKey(s.ID), string(data), r.sessionTTL)
	if err := cmd.Err(); err != nil {
		logger.WithError(r.logger, err).Error("Failed to save session", "session_id", s.ID)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id string) (*state.Session, error) {
	cmd := r.client.Get(ctx, sessionKey(id))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Session not found", "session_id", id)
			return nil, nil // Return nil for not found
		}
		logger.WithError(r.logger, err).Error("Failed to load session", "session_id", id)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s state.Session
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		logger.WithError(r.logger, err).Error("Failed to unmarshal session", "session_id", id)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id string) error {
	cmd := r.client.Del(ctx, sessionKey(id))
	if err := cmd.Err(); err != nil {
		logger.WithError(r.logger, err).Error("Failed to delete session", "session_id", id)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
