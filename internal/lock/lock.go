// Package redlock serializes queue maintenance across bot processes with a
// single-instance Redis lock.
package redlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/artcurate/curate/model"
)

// Locker guards one category's expired-hold sweep so only one process
// requeues holds at a time. The holder value is random per attempt; a
// crashed holder's lock can only die by TTL, never be released by the
// next process.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

// ForSweep returns the locker guarding a category's sweep.
func ForSweep(client redis.UniversalClient, prefix string, category model.Category) *Locker {
	return &Locker{
		client: client,
		key:    fmt.Sprintf("%s:%s:sweep", prefix, category),
		value:  uuid.NewString(),
	}
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s is already held", l.key)
	}
	return nil
}

// Unlock releases the lock only while this locker still holds it; a lock
// that expired and was re-acquired elsewhere stays untouched.
func (l *Locker) Unlock(ctx context.Context) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}
