package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmitLockKey builds the redis key guarding one session's submissions.
func SubmitLockKey(sessionID string) string {
	return fmt.Sprintf("leads:submit:%s:lock", sessionID)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive locks stored in Redis.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker constructs a Locker. ttl bounds how long a crashed holder can
// block others.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock for key. It returns ErrLockHeld when someone else
// holds it. The release func only deletes the lock it created.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, SubmitLockKey(key), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("shared: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{SubmitLockKey(key)}, token).Err()
	}
	return release, nil
}
