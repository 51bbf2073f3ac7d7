package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when the lock is already owned by another operation.
var ErrHeld = errors.New("lock already held")

// Locker acquires short-lived advisory locks. At most one schedule-generation
// or freeze operation may run per subscription; a second caller gets ErrHeld
// and is expected to retry rather than interleave.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedisLocker implements Locker on a shared Redis instance using SET NX with a
// per-acquisition token so a release never removes another owner's lock.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker builds a locker namespaced under the given prefix.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLocker{client: client, prefix: prefix}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Acquire attempts to take the lock. The returned release function is safe to
// call multiple times and after TTL expiry.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	full := l.prefix + ":" + key

	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{full}, token).Err()
	}
	return release, nil
}
