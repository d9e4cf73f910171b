package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Minute

// Store keeps per-chat conversation state in redis. States expire after a
// period of inactivity so an abandoned prompt never wedges a chat.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: defaultTTL}
}

func key(telegramID int64) string {
	return fmt.Sprintf("session:%d", telegramID)
}

// Get returns the chat's state, or nil when the chat is idle. The
// returned variants are pointers; dispatch with a type switch.
func (s *Store) Get(ctx context.Context, telegramID int64) (State, error) {
	raw, err := s.client.Get(ctx, key(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decode(raw)
}

func (s *Store) Set(ctx context.Context, telegramID int64, state State) error {
	raw, err := encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(telegramID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, telegramID int64) error {
	if err := s.client.Del(ctx, key(telegramID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
