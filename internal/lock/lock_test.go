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

package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcurate/curate/model"
)

func newTestClient(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSweepLockIsExclusive(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := ForSweep(client, "curate", model.CategorySFW)
	second := ForSweep(client, "curate", model.CategorySFW)

	require.NoError(t, first.Lock(ctx, 30*time.Second))
	assert.EqualError(t, second.Lock(ctx, 30*time.Second),
		"lock for key curate:SFW:sweep is already held")

	// categories sweep independently
	other := ForSweep(client, "curate", model.CategoryR18)
	assert.NoError(t, other.Lock(ctx, 30*time.Second))
}

func TestSweepLockReleaseHandsOver(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := ForSweep(client, "curate", model.CategoryNSFW)
	require.NoError(t, first.Lock(ctx, 30*time.Second))
	require.NoError(t, first.Unlock(ctx))

	second := ForSweep(client, "curate", model.CategoryNSFW)
	assert.NoError(t, second.Lock(ctx, 30*time.Second))
}

func TestSweepLockUnlockOnlyByHolder(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	holder := ForSweep(client, "curate", model.CategorySFW)
	intruder := ForSweep(client, "curate", model.CategorySFW)

	require.NoError(t, holder.Lock(ctx, 30*time.Second))

	err := intruder.Unlock(ctx)
	assert.EqualError(t, err,
		"unlock failed, either lock expired or you're not the lock holder for key curate:SFW:sweep")

	// the real holder still releases cleanly
	assert.NoError(t, holder.Unlock(ctx))
}

func TestSweepLockExpiresByTTL(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	crashed := ForSweep(client, "curate", model.CategorySFW)
	require.NoError(t, crashed.Lock(ctx, 50*time.Millisecond))

	mr.FastForward(100 * time.Millisecond)

	next := ForSweep(client, "curate", model.CategorySFW)
	assert.NoError(t, next.Lock(ctx, 30*time.Second))
}
