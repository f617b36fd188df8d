package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Incr atomically increments an integer counter and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.c.Incr(ctx, key).Result()
}

// MemoryKV is the in-process KV used when Redis is not configured.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memoryItem
	now  func() time.Time
}

type memoryItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryItem), now: time.Now}
}

// WithClock replaces the expiry clock.
func (m *MemoryKV) WithClock(now func() time.Time) *MemoryKV {
	m.now = now
	return m
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	if !item.expires.IsZero() && m.now().After(item.expires) {
		delete(m.data, key)
		return "", ErrMiss
	}
	return item.value, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.data[key] = memoryItem{value: value, expires: exp}
	return nil
}

func (m *MemoryKV) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if item, ok := m.data[key]; ok {
		v, err := strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, errors.New("value is not an integer")
		}
		n = v
	}
	n++
	m.data[key] = memoryItem{value: strconv.FormatInt(n, 10)}
	return n, nil
}
