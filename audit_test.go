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

package curate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
	"github.com/artcurate/curate/sites"
)

type fakeProvider struct {
	fail bool
}

func (f fakeProvider) Fetch(_ context.Context, contentID string) (*model.ItemSnapshot, []sites.Media, error) {
	if f.fail {
		return nil, nil, moderr.New(moderr.ErrContentFetchFailed, "item gone upstream", nil)
	}
	return &model.ItemSnapshot{
		Site:      "pixiv",
		ContentID: contentID,
		Title:     "fetched live",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, []sites.Media{{URL: "http://img.test/" + contentID, Kind: "image"}}, nil
}

func newTestCurator(t *testing.T, provider sites.Provider) (*Curator, *MockDataSource) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ds := NewMockDataSource()
	registry := sites.NewRegistryWithProviders(provider, provider, provider)
	cu, err := NewCuratorWithDependencies(ds, client, registry, NoopScheduler{})
	require.NoError(t, err)
	return cu, ds
}

func seedItems(t *testing.T, ds *MockDataSource, category model.Category, ids ...string) {
	t.Helper()
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	items := make([]*model.Item, 0, len(ids))
	for i, id := range ids {
		items = append(items, &model.Item{
			Site:      "pixiv",
			ContentID: id,
			Title:     "work " + id,
			Type:      category,
			Status:    model.StatusInit,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, ds.RecordItems(context.Background(), items))
}

func TestAuditFlowScenario(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{})
	ctx := context.Background()

	seedItems(t, ds, model.CategorySFW, "1", "2", "3")

	size, err := cu.AuditStart(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	// pop one: audit shrinks, pending grows
	packet, err := cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)
	assert.Equal(t, "1", packet.Key.ContentID) // oldest first
	require.NotNil(t, packet.Snapshot)

	auditSize, err := cu.engine.AuditSize(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(2), auditSize)
	pendingSize, err := cu.engine.PendingSize(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pendingSize)

	// approve it: pending drains, decision lands in the record store
	decision, err := cu.AuditApprove(ctx, model.CategorySFW, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPass, decision.Status)
	assert.Equal(t, model.CategorySFW, decision.Type)

	pendingSize, err = cu.engine.PendingSize(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pendingSize)

	stored, err := ds.GetDecision(ctx, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPass, stored.Status)

	// pop another and cancel: audit size returns to pre-pop value
	packet, err = cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)
	require.NoError(t, cu.AuditCancel(ctx, model.CategorySFW, packet.Key))

	auditSize, err = cu.engine.AuditSize(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(2), auditSize)
}

func TestAuditNextNothingToReview(t *testing.T) {
	cu, _ := newTestCurator(t, fakeProvider{})

	packet, err := cu.AuditNext(context.Background(), model.CategoryNSFW)
	assert.NoError(t, err)
	assert.Nil(t, packet)
}

func TestAuditNextReloadsWhenStoreHasItems(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{})
	ctx := context.Background()

	// record store has items but nobody called AuditStart yet
	seedItems(t, ds, model.CategorySFW, "7")

	packet, err := cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)
	assert.Equal(t, "7", packet.Key.ContentID)
}

func TestAuditNextAutoRejectsUnfetchableItem(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{fail: true})
	ctx := context.Background()

	seedItems(t, ds, model.CategorySFW, "9")
	_, err := cu.AuditStart(ctx, model.CategorySFW)
	require.NoError(t, err)

	key := model.ItemKey{Site: "pixiv", ContentID: "9"}
	// force a snapshot miss so the failing provider is consulted
	require.NoError(t, cu.snapshots.Delete(ctx, key))

	_, err = cu.AuditNext(ctx, model.CategorySFW)
	require.Error(t, err)
	assert.True(t, moderr.Is(err, moderr.ErrContentFetchFailed))

	// the broken item is out of rotation with a REJECT on record
	stored, err := ds.GetDecision(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReject, stored.Status)
	assert.Equal(t, "BadRequest", stored.Reason)

	pendingSize, err := cu.engine.PendingSize(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pendingSize)
}

func TestAuditRejectReclassifies(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{})
	ctx := context.Background()

	seedItems(t, ds, model.CategorySFW, "5")
	_, err := cu.AuditStart(ctx, model.CategorySFW)
	require.NoError(t, err)

	packet, err := cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)

	decision, err := cu.AuditReject(ctx, model.CategorySFW, packet.Key, "this is R18")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryR18, decision.Type)
	assert.Equal(t, model.StatusInit, decision.Status)

	// the item went straight into the R18 audit queue
	r18Size, err := cu.engine.AuditSize(ctx, model.CategoryR18)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r18Size)

	stored, err := ds.GetDecision(ctx, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryR18, stored.Type)
	assert.Equal(t, model.StatusInit, stored.Status)
}

func TestAuditRejectPlain(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{})
	ctx := context.Background()

	seedItems(t, ds, model.CategorySFW, "6")
	_, err := cu.AuditStart(ctx, model.CategorySFW)
	require.NoError(t, err)

	packet, err := cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)

	decision, err := cu.AuditReject(ctx, model.CategorySFW, packet.Key, "low quality")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReject, decision.Status)
	assert.Equal(t, "low quality", decision.Reason)

	stored, err := ds.GetDecision(ctx, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, "low quality", stored.Reason)
}

func TestUnclassifiedItemsSurfaceInSFWReview(t *testing.T) {
	cu, ds := newTestCurator(t, fakeProvider{})
	ctx := context.Background()

	// the crawler could not classify this one; it is recorded without a type
	require.NoError(t, ds.RecordItems(ctx, []*model.Item{{
		Site:      "pixiv",
		ContentID: "88",
		Title:     "untagged sketch",
		CreatedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}}))

	// only the SFW load picks it up
	for _, category := range []model.Category{model.CategoryNSFW, model.CategoryR18} {
		size, err := cu.AuditStart(ctx, category)
		require.NoError(t, err)
		assert.Equal(t, int64(0), size, category)
	}

	size, err := cu.AuditStart(ctx, model.CategorySFW)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	packet, err := cu.AuditNext(ctx, model.CategorySFW)
	require.NoError(t, err)
	require.NotNil(t, packet)
	assert.Equal(t, "88", packet.Key.ContentID)

	// approving defaults the unclassified item to SFW
	decision, err := cu.AuditApprove(ctx, model.CategorySFW, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.CategorySFW, decision.Type)
	assert.Equal(t, model.StatusPass, decision.Status)

	stored, err := ds.GetDecision(ctx, packet.Key)
	require.NoError(t, err)
	assert.Equal(t, model.CategorySFW, stored.Type)
	assert.Equal(t, model.StatusPass, stored.Status)
}
