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
)

// PushPacket is one approved item handed to the distribution side.
// Finalize must be called by the caller after a successful send; it records
// the PUSH outcome exactly once. A failed send should skip Finalize, which
// leaves the item without a push record for manual follow-up.
type PushPacket struct {
	Key       model.ItemKey       `json:"key"`
	Snapshot  *model.ItemSnapshot `json:"snapshot"`
	Remaining int64               `json:"remaining"`

	category  model.Category
	curator   *Curator
	finalized bool
}

// Finalize records the PUSH decision for the item. Idempotent per packet.
func (p *PushPacket) Finalize(ctx context.Context) error {
	if p.finalized {
		return nil
	}
	if err := p.curator.PushFinalize(ctx, p.category, p.Key); err != nil {
		return err
	}
	p.finalized = true
	return nil
}

// PushFinalize records the PUSH outcome for an item that was delivered.
// Callers holding a PushPacket should prefer Finalize on the packet; this
// by-key form exists for callers that report delivery in a later request.
func (cu *Curator) PushFinalize(ctx context.Context, category model.Category, key model.ItemKey) error {
	current, err := cu.datasource.GetDecision(ctx, key)
	if err != nil {
		if !moderr.Is(err, moderr.ErrNotFound) {
			return err
		}
		current = &model.Item{Type: category, Status: model.StatusPass}
	}

	decision := model.Decide(current.Type, current.Status, model.ActionPush, "")
	return cu.datasource.ApplyDecision(ctx, key, decision)
}

// PushStart loads a category's approved items into the push queue and
// returns its size.
func (cu *Curator) PushStart(ctx context.Context, category model.Category) (int64, error) {
	ctx, span := tracer.Start(ctx, "Loading approved items into push queue")
	defer span.End()

	items, err := cu.datasource.GetApprovedForPush(ctx, category, auditBatchSize)
	if err != nil {
		return 0, err
	}

	keys := make([]model.ItemKey, 0, len(items))
	snapshots := make([]*model.ItemSnapshot, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key())
		snapshots = append(snapshots, item.Snapshot())
	}

	if cfg, cfgErr := config.Fetch(); cfgErr == nil {
		if err := cu.snapshots.SaveMany(ctx, snapshots, cfg.SnapshotTTL()); err != nil {
			notification.NotifyError(err)
		}
	}

	return cu.engine.EnqueuePush(ctx, category, keys)
}

// PushNext pops one approved item for distribution. A nil packet with nil
// error means nothing is approved and waiting. When the queue looks empty
// but the record store still holds PASS items (nobody ran PushStart, or a
// loaded batch was consumed), the load is retried once before giving up.
// The popped item is already out of the queue; only a successful send
// should call Finalize on the packet.
func (cu *Curator) PushNext(ctx context.Context, category model.Category) (*PushPacket, error) {
	ctx, span := tracer.Start(ctx, "Popping next push item")
	defer span.End()

	key, remaining, err := cu.engine.PopPush(ctx, category)
	if err != nil {
		return nil, err
	}
	if key == nil {
		approved, err := cu.datasource.GetApprovedForPush(ctx, category, 1)
		if err != nil {
			return nil, err
		}
		if len(approved) == 0 {
			return nil, nil
		}
		if _, err := cu.PushStart(ctx, category); err != nil {
			return nil, err
		}
		key, remaining, err = cu.engine.PopPush(ctx, category)
		if err != nil || key == nil {
			return nil, err
		}
	}

	snapshot, err := cu.snapshots.Load(ctx, *key)
	if err != nil {
		notification.NotifyError(err)
		snapshot = nil
	}
	if snapshot == nil {
		fetched, _, fetchErr := cu.registry.Fetch(ctx, *key)
		if fetchErr != nil {
			// the item was already approved; ship it with what we have
			notification.NotifyError(fetchErr)
		} else {
			snapshot = fetched
		}
	}

	return &PushPacket{
		Key:       *key,
		Snapshot:  snapshot,
		Remaining: remaining,
		category:  category,
		curator:   cu,
	}, nil
}
