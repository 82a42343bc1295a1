// Package snapshot persists the last good raw catalog document in Redis so a
// restarted service can serve queries before its first upstream fetch.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key the snapshot is stored under.
const DefaultKey = "catalog:snapshot"

// ErrNotFound is returned by Load when no snapshot is stored.
var ErrNotFound = errors.New("catalog snapshot not found")

// Snapshot is a stored catalog document.
type Snapshot struct {
	Generation uint64          `json:"generation"`
	SavedAt    time.Time       `json:"saved_at"`
	Body       json.RawMessage `json:"body"`
}

// Store reads and writes the catalog snapshot.
type Store struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewStore creates a Redis-backed snapshot store. A zero ttl keeps the
// snapshot until it is overwritten.
func NewStore(client *redis.Client, key string, ttl time.Duration) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key, ttl: ttl}
}

// Save stores body, which must be a valid JSON document.
func (s *Store) Save(ctx context.Context, generation uint64, body []byte) error {
	data, err := json.Marshal(Snapshot{
		Generation: generation,
		SavedAt:    time.Now().UTC(),
		Body:       body,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNotFound.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("redis get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes the stored snapshot.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
