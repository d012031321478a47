package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PrefixSession namespaces snapshot keys.
const PrefixSession = "scholaroute:session:"

// RedisStore keeps snapshots as JSON strings that expire after ttl of inactivity.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(owner string) string { return PrefixSession + owner }

func (s *RedisStore) Load(ctx context.Context, owner string) (Snapshot, error) {
	b, err := s.client.Get(ctx, sessionKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %q: %w", owner, err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(snap.Owner), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, owner string) error {
	return s.client.Del(ctx, sessionKey(owner)).Err()
}
