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

	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/internal/notification"
	"github.com/artcurate/curate/model"
	"github.com/artcurate/curate/queue"
	"github.com/artcurate/curate/sites"
)

// ReviewPacket is what the chat UI shows a moderator for one checked-out
// item.
type ReviewPacket struct {
	Key      model.ItemKey       `json:"key"`
	Snapshot *model.ItemSnapshot `json:"snapshot"`
	Media    []sites.Media       `json:"media,omitempty"`
}

// AuditStart loads a category's unreviewed items from the record store
// into the audit queue and returns the queue size. Zero means there is
// nothing to review right now.
func (cu *Curator) AuditStart(ctx context.Context, category model.Category) (int64, error) {
	ctx, span := tracer.Start(ctx, "Loading unreviewed items into audit queue")
	defer span.End()

	items, err := cu.datasource.GetUnreviewed(ctx, category, auditBatchSize)
	if err != nil {
		return 0, err
	}

	entries := make([]queue.Entry, 0, len(items))
	snapshots := make([]*model.ItemSnapshot, 0, len(items))
	for _, item := range items {
		entries = append(entries, queue.Entry{Key: item.Key(), CreatedAt: item.CreatedAt})
		snapshots = append(snapshots, item.Snapshot())
	}

	// snapshot writes are best-effort; the record store stays authoritative
	if cfg, cfgErr := config.Fetch(); cfgErr == nil {
		if err := cu.snapshots.SaveMany(ctx, snapshots, cfg.SnapshotTTL()); err != nil {
			notification.NotifyError(err)
		}
	}

	return cu.engine.EnqueueAudit(ctx, category, entries)
}

// AuditNext checks out the next item for review. A nil packet with nil
// error means the queue is drained. When the queue looks empty but the
// record store still reports unreviewed items (a race with another
// session's enqueue), the load is retried once before giving up.
func (cu *Curator) AuditNext(ctx context.Context, category model.Category) (*ReviewPacket, error) {
	ctx, span := tracer.Start(ctx, "Checking out next audit item")
	defer span.End()

	key, err := cu.engine.PopAudit(ctx, category)
	if err != nil {
		if moderr.Is(err, moderr.ErrMalformedKey) {
			notification.NotifyError(err)
		}
		return nil, err
	}

	if key == nil {
		count, err := cu.datasource.CountUnreviewed(ctx, category)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, nil
		}
		if _, err := cu.AuditStart(ctx, category); err != nil {
			return nil, err
		}
		key, err = cu.engine.PopAudit(ctx, category)
		if err != nil || key == nil {
			return nil, err
		}
	}

	packet, err := cu.resolvePacket(ctx, category, *key)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if err := cu.scheduler.ScheduleExpiry(ctx, category, *key, cfg.PendingHold()); err != nil {
		// the pending key TTL still covers recovery, so only report it
		notification.NotifyError(err)
	}

	return packet, nil
}

// resolvePacket resolves an item's snapshot, falling back to the site
// provider on a cache miss. A permanently unfetchable item is auto-rejected
// so it cannot block the queue forever.
func (cu *Curator) resolvePacket(ctx context.Context, category model.Category, key model.ItemKey) (*ReviewPacket, error) {
	snapshot, err := cu.snapshots.Load(ctx, key)
	if err != nil {
		notification.NotifyError(err)
		snapshot = nil
	}
	if snapshot != nil {
		return &ReviewPacket{Key: key, Snapshot: snapshot}, nil
	}

	snapshot, media, fetchErr := cu.registry.Fetch(ctx, key)
	if fetchErr != nil {
		decision := model.Decide(category, model.StatusInit, model.ActionReject, "BadRequest")
		if err := cu.datasource.ApplyDecision(ctx, key, decision); err != nil {
			notification.NotifyError(err)
		}
		if err := cu.engine.FinalizePending(ctx, category, key); err != nil {
			notification.NotifyError(err)
		}
		return nil, fetchErr
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if err := cu.snapshots.Save(ctx, snapshot, cfg.SnapshotTTL()); err != nil {
		notification.NotifyError(err)
	}

	return &ReviewPacket{Key: key, Snapshot: snapshot, Media: media}, nil
}

// AuditApprove records a PASS for the item and releases its pending hold.
func (cu *Curator) AuditApprove(ctx context.Context, category model.Category, key model.ItemKey) (model.Decision, error) {
	ctx, span := tracer.Start(ctx, "Approving audit item")
	defer span.End()

	return cu.applyAction(ctx, category, key, model.ActionApprove, "")
}

// AuditReject records a rejection. A reason naming another category
// reclassifies the item: it is finalized here and enqueued straight into
// the named category's audit queue.
func (cu *Curator) AuditReject(ctx context.Context, category model.Category, key model.ItemKey, reason string) (model.Decision, error) {
	ctx, span := tracer.Start(ctx, "Rejecting audit item")
	defer span.End()

	return cu.applyAction(ctx, category, key, model.ActionReject, reason)
}

// AuditCancel puts a checked-out item back into the audit queue. Safe to
// call with a stale key; an expired hold is a no-op.
func (cu *Curator) AuditCancel(ctx context.Context, category model.Category, key model.ItemKey) error {
	ctx, span := tracer.Start(ctx, "Cancelling audit checkout")
	defer span.End()

	return cu.engine.CancelPending(ctx, category, key)
}

func (cu *Curator) applyAction(ctx context.Context, category model.Category, key model.ItemKey, action model.Action, reason string) (model.Decision, error) {
	current, err := cu.datasource.GetDecision(ctx, key)
	if err != nil {
		if !moderr.Is(err, moderr.ErrNotFound) {
			return model.Decision{}, err
		}
		current = &model.Item{Type: category, Status: model.StatusInit}
	}

	decision := model.Decide(current.Type, current.Status, action, reason)
	if err := cu.datasource.ApplyDecision(ctx, key, decision); err != nil {
		return model.Decision{}, err
	}
	if err := cu.engine.FinalizePending(ctx, category, key); err != nil {
		return model.Decision{}, err
	}

	if decision.Reclassified(category) {
		createdAt := current.CreatedAt
		entry := queue.Entry{Key: key, CreatedAt: createdAt}
		if _, err := cu.engine.EnqueueAudit(ctx, decision.Type, []queue.Entry{entry}); err != nil {
			// the record store already carries the INIT row, the next
			// AuditStart for that category will pick it up
			notification.NotifyError(err)
		}
	}

	return decision, nil
}
