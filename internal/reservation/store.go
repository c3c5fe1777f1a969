package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrConflict is returned by Create when a reservation already exists.
	ErrConflict = errors.New("reservation already exists")
	// ErrNotFound is returned by Get when no reservation exists.
	ErrNotFound = errors.New("no reservation")
)

// Store is the external record store holding at most one admin reservation
// per room. Records are not leased or renewed; they live until deleted.
type Store interface {
	// Create stores {room -> name} if absent; ErrConflict if a record exists.
	Create(ctx context.Context, room, name string) error
	// Get returns the reserved admin name; ErrNotFound if absent.
	Get(ctx context.Context, room string) (string, error)
	// Delete removes the record. Absence is not an error.
	Delete(ctx context.Context, room string) error
}

const keyPrefix = "meet:admin:"

// RedisStore implements Store on Redis. SETNX gives atomic create-if-absent;
// Get and Delete are separate commands, so Reclaim's read-then-delete is not
// atomic (see Manager.Reclaim).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed reservation store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(room string) string { return keyPrefix + room }

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, room, name string) error {
	ok, err := s.client.SetNX(ctx, key(room), name, 0).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, room string) (string, error) {
	name, err := s.client.Get(ctx, key(room)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	return name, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, room string) error {
	if err := s.client.Del(ctx, key(room)).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}
