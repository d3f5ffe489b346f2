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

package database

import (
	"context"

	"github.com/artcurate/curate/model"
)

// IDataSource is the persistence layer the queue subsystem coordinates
// with. It is the single source of truth for item existence and final
// decisions; queue state in Redis is derived and rebuildable from it.
type IDataSource interface {
	auditRepository
}

// auditRepository defines the audit record operations.
type auditRepository interface {
	RecordItems(ctx context.Context, items []*model.Item) error                                    // Upserts crawled items awaiting review
	GetUnreviewed(ctx context.Context, category model.Category, limit int) ([]*model.Item, error)  // Lists INIT items for a category, oldest first
	CountUnreviewed(ctx context.Context, category model.Category) (int64, error)                   // Counts INIT items for a category
	GetApprovedForPush(ctx context.Context, category model.Category, limit int) ([]*model.Item, error) // Lists PASS items awaiting distribution
	ApplyDecision(ctx context.Context, key model.ItemKey, decision model.Decision) error           // Single-row upsert of an audit outcome
	GetDecision(ctx context.Context, key model.ItemKey) (*model.Item, error)                       // Fetches an item with its current disposition
}
