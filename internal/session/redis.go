package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "todos:session:"

// RedisManager stores sessions as JSON documents with a sliding TTL.
type RedisManager struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisManager(rdb *redis.Client, ttl time.Duration) *RedisManager {
	return &RedisManager{rdb: rdb, ttl: ttl}
}

// OpenRedis connects to addr and pings it before returning.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (m *RedisManager) New(ctx context.Context) (*Session, error) {
	s := newSession()
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *RedisManager) Load(ctx context.Context, id string) (*Session, error) {
	data, err := m.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &s, nil
}

func (m *RedisManager) Save(ctx context.Context, s *Session) error {
	s.Lock()
	data, err := json.Marshal(s)
	s.Unlock()
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", s.ID, err)
	}

	if err := m.rdb.Set(ctx, keyPrefix+s.ID, data, m.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", s.ID, err)
	}
	return nil
}

func (m *RedisManager) Destroy(ctx context.Context, id string) error {
	if err := m.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: destroy %s: %w", id, err)
	}
	return nil
}
