/*
Copyright 2025 Artcurate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package queue implements the audit/push queue state machine on top of a
// shared Redis instance. Every multi-step transition runs as a single
// optimistic transaction (WATCH + MULTI/EXEC), so concurrent moderator
// sessions across processes can never check out the same item twice and a
// crash mid-transition never strands an item between sets.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
)

// txRetries bounds how often a lost optimistic lock is retried before the
// conflict is surfaced to the caller.
const txRetries = 3

// Entry is an item to enqueue, with the creation timestamp that orders the
// audit queue (oldest first, so nothing starves).
type Entry struct {
	Key       model.ItemKey
	CreatedAt time.Time
}

// Engine moves items between the audit, pending and push sets of each
// category. It holds no in-process state; all coordination happens through
// Redis primitives, which is what makes it safe to run from many bot
// processes at once.
type Engine struct {
	client redis.UniversalClient
	prefix string
	hold   time.Duration // pending review window, refreshed on every pop
}

func NewEngine(client redis.UniversalClient, prefix string, hold time.Duration) *Engine {
	return &Engine{client: client, prefix: prefix, hold: hold}
}

// Names exposes the key names the engine uses for a category.
func (e *Engine) Names(category model.Category) Names {
	return NamesFor(e.prefix, category)
}

// EnqueueAudit adds items to the category's audit queue, skipping members
// already present in audit or currently checked out in pending. Re-running
// the same batch is a membership no-op. Returns the resulting audit size.
func (e *Engine) EnqueueAudit(ctx context.Context, category model.Category, entries []Entry) (int64, error) {
	names := e.Names(category)
	var size int64

	err := e.withTxRetry(ctx, func() error {
		return e.client.Watch(ctx, func(tx *redis.Tx) error {
			pendingScores := make([]*redis.FloatCmd, len(entries))
			_, err := tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
				for i, entry := range entries {
					pendingScores[i] = pipe.ZScore(ctx, names.Pending, entry.Key.String())
				}
				return nil
			})
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			var sizeCmd *redis.IntCmd
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for i, entry := range entries {
					if pendingScores[i].Err() == nil {
						// checked out by a moderator right now, leave it alone
						continue
					}
					member := entry.Key.String()
					score := float64(entry.CreatedAt.Unix())
					pipe.ZAddNX(ctx, names.Audit, redis.Z{Score: score, Member: member})
					pipe.HSet(ctx, names.Ctime, member, score)
				}
				sizeCmd = pipe.ZCard(ctx, names.Audit)
				return nil
			})
			if err != nil {
				return err
			}
			size = sizeCmd.Val()
			return nil
		}, names.Audit, names.Pending)
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// PopAudit atomically checks out the oldest audit item: removes it from
// audit, adds it to pending stamped with the checkout time, and refreshes
// the pending window. Returns (nil, nil) when the queue is empty; that is a
// normal outcome, not an error.
func (e *Engine) PopAudit(ctx context.Context, category model.Category) (*model.ItemKey, error) {
	names := e.Names(category)
	var popped *model.ItemKey

	err := e.withTxRetry(ctx, func() error {
		popped = nil
		return e.client.Watch(ctx, func(tx *redis.Tx) error {
			members, err := tx.ZRange(ctx, names.Audit, 0, 0).Result()
			if err != nil {
				return err
			}
			if len(members) == 0 {
				return nil
			}

			key, err := model.ParseItemKey(members[0])
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, names.Audit, members[0])
				pipe.ZAdd(ctx, names.Pending, redis.Z{Score: float64(time.Now().Unix()), Member: members[0]})
				pipe.Expire(ctx, names.Pending, e.hold)
				return nil
			})
			if err != nil {
				return err
			}
			popped = &key
			return nil
		}, names.Audit, names.Pending)
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// CancelPending puts a checked-out item back into the audit queue at its
// original creation-time position. Calling it for an item that is no longer
// pending (already finalized, or expired out) is a no-op, since the
// moderator's client may be stale.
func (e *Engine) CancelPending(ctx context.Context, category model.Category, key model.ItemKey) error {
	names := e.Names(category)
	member := key.String()

	return e.withTxRetry(ctx, func() error {
		return e.client.Watch(ctx, func(tx *redis.Tx) error {
			if _, err := tx.ZScore(ctx, names.Pending, member).Result(); err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return err
			}

			score := float64(time.Now().Unix())
			if ctime, err := tx.HGet(ctx, names.Ctime, member).Float64(); err == nil {
				score = ctime
			}

			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, names.Pending, member)
				pipe.ZAddNX(ctx, names.Audit, redis.Z{Score: score, Member: member})
				pipe.Expire(ctx, names.Pending, e.hold)
				return nil
			})
			return err
		}, names.Audit, names.Pending, names.Ctime)
	})
}

// FinalizePending removes a decided item from pending. The item returns to
// no queue; its disposition now lives in the audit record store.
func (e *Engine) FinalizePending(ctx context.Context, category model.Category, key model.ItemKey) error {
	names := e.Names(category)
	member := key.String()

	_, err := e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, names.Pending, member)
		pipe.HDel(ctx, names.Ctime, member)
		return nil
	})
	if err != nil {
		return e.wrapCache(err)
	}
	return nil
}

// EnqueuePush adds approved items to the push queue and returns its new
// size. Duplicate members are absorbed by the set.
func (e *Engine) EnqueuePush(ctx context.Context, category model.Category, keys []model.ItemKey) (int64, error) {
	names := e.Names(category)

	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k.String()
	}

	var sizeCmd *redis.IntCmd
	_, err := e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			pipe.SAdd(ctx, names.Push, members...)
		}
		sizeCmd = pipe.SCard(ctx, names.Push)
		return nil
	})
	if err != nil {
		return 0, e.wrapCache(err)
	}
	return sizeCmd.Val(), nil
}

// PopPush removes a random member from the push queue and returns it with
// the remaining size. An empty queue yields (nil, 0, nil), distinguishable
// from a valid pop by the nil key.
func (e *Engine) PopPush(ctx context.Context, category model.Category) (*model.ItemKey, int64, error) {
	names := e.Names(category)

	var popCmd *redis.StringSliceCmd
	var sizeCmd *redis.IntCmd
	_, err := e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		popCmd = pipe.SPopN(ctx, names.Push, 1)
		sizeCmd = pipe.SCard(ctx, names.Push)
		return nil
	})
	if err != nil {
		return nil, 0, e.wrapCache(err)
	}

	members := popCmd.Val()
	if len(members) == 0 {
		return nil, sizeCmd.Val(), nil
	}
	key, err := model.ParseItemKey(members[0])
	if err != nil {
		return nil, sizeCmd.Val(), err
	}
	return &key, sizeCmd.Val(), nil
}

// AuditSize returns the current audit queue size. Read-only.
func (e *Engine) AuditSize(ctx context.Context, category model.Category) (int64, error) {
	n, err := e.client.ZCard(ctx, e.Names(category).Audit).Result()
	if err != nil {
		return 0, e.wrapCache(err)
	}
	return n, nil
}

// PendingSize returns the number of items currently checked out.
func (e *Engine) PendingSize(ctx context.Context, category model.Category) (int64, error) {
	n, err := e.client.ZCard(ctx, e.Names(category).Pending).Result()
	if err != nil {
		return 0, e.wrapCache(err)
	}
	return n, nil
}

// PushSize returns the current push queue size.
func (e *Engine) PushSize(ctx context.Context, category model.Category) (int64, error) {
	n, err := e.client.SCard(ctx, e.Names(category).Push).Result()
	if err != nil {
		return 0, e.wrapCache(err)
	}
	return n, nil
}

// ExpiredPending lists pending members whose hold window has lapsed,
// i.e. checked out before now minus the hold duration. The sweep worker
// feeds these back through CancelPending.
func (e *Engine) ExpiredPending(ctx context.Context, category model.Category) ([]model.ItemKey, error) {
	names := e.Names(category)
	cutoff := time.Now().Add(-e.hold).Unix()

	members, err := e.client.ZRangeByScore(ctx, names.Pending, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return nil, e.wrapCache(err)
	}

	keys := make([]model.ItemKey, 0, len(members))
	for _, member := range members {
		key, err := model.ParseItemKey(member)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// withTxRetry re-runs fn when the optimistic watch is lost to a concurrent
// writer. Transport failures are never retried here; the retry policy for
// those belongs to the caller.
func (e *Engine) withTxRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return e.wrapCache(err)
		}
	}
	return moderr.New(moderr.ErrConcurrentModification,
		fmt.Sprintf("queue transaction kept losing its watch after %d attempts", txRetries), err)
}

// wrapCache classifies an engine-level failure. Malformed keys pass through
// untouched so they keep their own code.
func (e *Engine) wrapCache(err error) error {
	if err == nil {
		return nil
	}
	if moderr.Is(err, moderr.ErrMalformedKey) {
		return err
	}
	return moderr.New(moderr.ErrCacheUnavailable, "queue cache operation failed", err)
}
