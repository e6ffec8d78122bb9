package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when the lock is currently held by another caller.
var ErrLockHeld = errors.New("lock is held by another request")

// Locker serializes the check-then-write section of booking creation on a
// per-listing basis. Without it two concurrent creates for overlapping date
// ranges on the same listing could both pass the availability check.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// redisLocker implements Locker with a Redis SET NX PX lock. The lock value
// is a random token so release only deletes a lock this caller still owns.
type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Locker backed by the given Redis client.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func() {
		// Best-effort: the TTL bounds the damage if release fails.
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}
	return release, nil
}
