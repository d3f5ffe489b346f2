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
	"sort"
	"sync"

	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
)

// MockDataSource is an in-memory record store used by tests and local
// development without postgres.
type MockDataSource struct {
	mu    sync.Mutex
	items map[model.ItemKey]*model.Item
}

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{items: make(map[model.ItemKey]*model.Item)}
}

func (m *MockDataSource) RecordItems(_ context.Context, items []*model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		copied := *item
		if copied.Status == "" {
			copied.Status = model.StatusInit
		}
		if copied.Type == "" {
			copied.Type = model.CategoryUnclassified
		}
		if existing, ok := m.items[item.Key()]; ok {
			copied.Status = existing.Status
			copied.Type = existing.Type
			copied.Reason = existing.Reason
		}
		m.items[item.Key()] = &copied
	}
	return nil
}

func (m *MockDataSource) GetUnreviewed(_ context.Context, category model.Category, limit int) ([]*model.Item, error) {
	return m.filter(category.AuditTypes(), model.StatusInit, limit), nil
}

func (m *MockDataSource) CountUnreviewed(_ context.Context, category model.Category) (int64, error) {
	return int64(len(m.filter(category.AuditTypes(), model.StatusInit, 0))), nil
}

func (m *MockDataSource) GetApprovedForPush(_ context.Context, category model.Category, limit int) ([]*model.Item, error) {
	return m.filter([]model.Category{category}, model.StatusPass, limit), nil
}

func (m *MockDataSource) ApplyDecision(_ context.Context, key model.ItemKey, decision model.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		item = &model.Item{Site: key.Site, ContentID: key.ContentID}
		m.items[key] = item
	}
	item.Type = decision.Type
	item.Status = decision.Status
	item.Reason = decision.Reason
	return nil
}

func (m *MockDataSource) GetDecision(_ context.Context, key model.ItemKey) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return nil, moderr.New(moderr.ErrNotFound, "no audit record for "+key.String(), nil)
	}
	copied := *item
	return &copied, nil
}

func (m *MockDataSource) filter(types []model.Category, status model.Status, limit int) []*model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Item
	for _, item := range m.items {
		if item.Status != status {
			continue
		}
		for _, t := range types {
			if item.Type == t {
				copied := *item
				out = append(out, &copied)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key().String() < out[j].Key().String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
