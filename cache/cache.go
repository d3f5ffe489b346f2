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

// Package cache holds the item snapshot store: a side table mapping item
// keys to serialized metadata so a queue pop does not cost a site fetch.
// It is pure cache. The audit record store stays authoritative, and a miss
// is always a legal answer.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/artcurate/curate/model"
)

// localCacheSize is the size of the in-process TinyLFU tier kept in front
// of Redis.
const localCacheSize = 10000

const snapshotKeyPrefix = "curate:snapshot:"

// SnapshotStore caches item metadata with an expiry. All methods take the
// snapshot TTL from the caller so the store itself stays config-free.
type SnapshotStore struct {
	client redis.UniversalClient
	cache  *cache.Cache
}

// NewSnapshotStore builds a store over the shared Redis client, with a
// local TinyLFU tier for hot items.
func NewSnapshotStore(client redis.UniversalClient) *SnapshotStore {
	c := cache.New(&cache.Options{
		Redis:      client,
		LocalCache: cache.NewTinyLFU(localCacheSize, time.Minute),
	})
	return &SnapshotStore{client: client, cache: c}
}

func snapshotCacheKey(key model.ItemKey) string {
	return snapshotKeyPrefix + key.String()
}

// Save upserts one snapshot, refreshing its expiry.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *model.ItemSnapshot, ttl time.Duration) error {
	return s.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   snapshotCacheKey(snapshot.Key()),
		Value: snapshot,
		TTL:   ttl,
	})
}

// SaveMany upserts a batch of snapshots in a single round trip. Written
// through the raw client pipeline; the local tier catches up on first read.
func (s *SnapshotStore) SaveMany(ctx context.Context, snapshots []*model.ItemSnapshot, ttl time.Duration) error {
	if len(snapshots) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, snapshot := range snapshots {
			payload, err := s.cache.Marshal(snapshot)
			if err != nil {
				return err
			}
			pipe.Set(ctx, snapshotCacheKey(snapshot.Key()), payload, ttl)
		}
		return nil
	})
	return err
}

// Load fetches a snapshot. A cache miss returns (nil, nil), never an error;
// callers fall back to the content-info provider.
func (s *SnapshotStore) Load(ctx context.Context, key model.ItemKey) (*model.ItemSnapshot, error) {
	var snapshot model.ItemSnapshot
	err := s.cache.Get(ctx, snapshotCacheKey(key), &snapshot)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Delete drops a snapshot. Used when an item turns out to be permanently
// unfetchable so the stale copy cannot resurface.
func (s *SnapshotStore) Delete(ctx context.Context, key model.ItemKey) error {
	return s.cache.Delete(ctx, snapshotCacheKey(key))
}
