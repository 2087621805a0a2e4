package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants short exclusive leases, used to keep one sweep running
// across all service instances.
type Locker interface {
	// TryLock returns ok=false without error when another holder has the lease.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client   *redis.Client
	newToken func() string
}

// NewRedisLocker builds a locker over client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, newToken: uuid.NewString}
}

// TryLock implements Locker.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}

// LocalLocker implements Locker inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalLocker returns an empty process local locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}, now: time.Now}
}

// TryLock implements Locker. Expired leases are reclaimed.
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.held[key]; ok && l.now().Before(until) {
		return nil, false, nil
	}
	until := l.now().Add(ttl)
	l.held[key] = until
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
		return nil
	}, true, nil
}
