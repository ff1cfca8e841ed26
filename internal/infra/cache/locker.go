package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// 取れなかった
var ErrLockHeld = errors.New("lock is held")

// キー単位の排他
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	rdb *redis.Client
}

// pingが通らなければエラー
func NewRedisLocker(ctx context.Context, addr, password string, db int) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisLocker{rdb: rdb}, nil
}

func NewRedisLockerFromClient(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(key), "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, lockKey(key)).Err()
}

func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

func lockKey(key string) string {
	return "lock:" + key
}

// Redisが無いとき用（1プロセス内だけ有効）
type LocalLocker struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{until: map[string]time.Time{}, now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.until[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.until[key] = now.Add(ttl)
	return true, nil
}

func (l *LocalLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.until, key)
	l.mu.Unlock()
	return nil
}

// 取れるまで少し待つ
func AcquireWithRetry(ctx context.Context, l Locker, key string, ttl time.Duration, attempts int, wait time.Duration) error {
	for i := 0; i < attempts; i++ {
		ok, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return ErrLockHeld
}
