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
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
)

const itemColumns = `site, content_id, title, author, tags, views, bookmarks, type, status, reason, created_at`

// RecordItems upserts crawled items. Existing rows keep their disposition;
// only metadata refreshes, so a re-crawl never reopens a decided item.
func (d Datasource) RecordItems(ctx context.Context, items []*model.Item) error {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Recording crawled items")
	defer span.End()

	txn, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning record transaction")
	}
	defer func() { _ = txn.Rollback() }()

	stmt, err := txn.PrepareContext(ctx, `
		INSERT INTO audit_records (site, content_id, title, author, tags, views, bookmarks, type, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', $10, NOW())
		ON CONFLICT (site, content_id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			tags = EXCLUDED.tags,
			views = EXCLUDED.views,
			bookmarks = EXCLUDED.bookmarks,
			updated_at = NOW()`)
	if err != nil {
		return errors.Wrap(err, "preparing record statement")
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		status := item.Status
		if status == "" {
			status = model.StatusInit
		}
		itemType := item.Type
		if itemType == "" {
			itemType = model.CategoryUnclassified
		}
		_, err = stmt.ExecContext(ctx,
			item.Site, item.ContentID, item.Title, item.Author, pq.Array(item.Tags),
			item.Stats.Views, item.Stats.Bookmarks, itemType, status, item.CreatedAt)
		if err != nil {
			return errors.Wrapf(err, "recording item %s", item.Key())
		}
	}
	return errors.Wrap(txn.Commit(), "committing recorded items")
}

// auditTypeNames renders the record types a category's review load picks
// up, in a form pq can bind.
func auditTypeNames(category model.Category) []string {
	types := category.AuditTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// GetUnreviewed lists a category's INIT items, oldest first. SFW also
// picks up unclassified rows, per Category.AuditTypes.
func (d Datasource) GetUnreviewed(ctx context.Context, category model.Category, limit int) ([]*model.Item, error) {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Fetching unreviewed items")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM audit_records
		WHERE type = ANY($1) AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`, pq.Array(auditTypeNames(category)), model.StatusInit, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying unreviewed items")
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// CountUnreviewed counts the INIT items a category's review would load.
func (d Datasource) CountUnreviewed(ctx context.Context, category model.Category) (int64, error) {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Counting unreviewed items")
	defer span.End()

	var count int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_records WHERE type = ANY($1) AND status = $2`,
		pq.Array(auditTypeNames(category)), model.StatusInit).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "counting unreviewed items")
	}
	return count, nil
}

// GetApprovedForPush lists a category's PASS items awaiting distribution.
func (d Datasource) GetApprovedForPush(ctx context.Context, category model.Category, limit int) ([]*model.Item, error) {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Fetching approved items for push")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM audit_records
		WHERE type = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`, category, model.StatusPass, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying approved items")
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// ApplyDecision upserts an audit outcome as one atomic row write. When the
// item row is missing (snapshot-only item whose crawl record was pruned) a
// minimal row is created so the decision is never lost.
func (d Datasource) ApplyDecision(ctx context.Context, key model.ItemKey, decision model.Decision) error {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Applying audit decision")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO audit_records (site, content_id, type, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (site, content_id) DO UPDATE SET
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			updated_at = NOW()`,
		key.Site, key.ContentID, decision.Type, decision.Status, decision.Reason)
	if err != nil {
		return errors.Wrapf(err, "applying decision for %s", key)
	}
	return nil
}

// GetDecision fetches one item with its current disposition. Absence is a
// NOT_FOUND moderr, which callers may treat as "still unclassified".
func (d Datasource) GetDecision(ctx context.Context, key model.ItemKey) (*model.Item, error) {
	ctx, span := otel.Tracer("audit.records").Start(ctx, "Fetching audit decision")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM audit_records
		WHERE site = $1 AND content_id = $2`, key.Site, key.ContentID)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, moderr.New(moderr.ErrNotFound, "no audit record for "+key.String(), err)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fetching decision for %s", key)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var tags pq.StringArray
	err := row.Scan(&item.Site, &item.ContentID, &item.Title, &item.Author, &tags,
		&item.Stats.Views, &item.Stats.Bookmarks, &item.Type, &item.Status, &item.Reason, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*model.Item, error) {
	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning item row")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
