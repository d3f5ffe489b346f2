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

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/artcurate/curate/internal/moderr"
)

// keySeparator joins site and content id into a queue member key.
// Site names never contain it, so the encoding stays injective.
const keySeparator = ":"

// ItemKey identifies one piece of content across every queue set.
// The same logical item always renders to the same string, which is what
// keeps set membership checks and de-duplication honest.
type ItemKey struct {
	Site      string `json:"site"`
	ContentID string `json:"content_id"`
}

// String renders the canonical cache key, e.g. "pixiv:103984022".
func (k ItemKey) String() string {
	return k.Site + keySeparator + k.ContentID
}

// ParseItemKey is the inverse of ItemKey.String. A key that does not split
// into a non-empty site and content id is a data-integrity bug, reported as
// a MalformedKey error so callers can log it loudly instead of dropping it.
func ParseItemKey(raw string) (ItemKey, error) {
	site, contentID, found := strings.Cut(raw, keySeparator)
	if !found || site == "" || contentID == "" {
		return ItemKey{}, moderr.New(moderr.ErrMalformedKey, fmt.Sprintf("malformed item key %q", raw), nil)
	}
	return ItemKey{Site: site, ContentID: contentID}, nil
}

// ItemStats carries the engagement counters shown to moderators.
type ItemStats struct {
	Views     int64 `json:"views"`
	Bookmarks int64 `json:"bookmarks"`
}

// ItemSnapshot is the cached copy of an item's metadata. It is never
// authoritative; the audit record in the database is. A missing snapshot
// only costs a round trip to the originating site.
type ItemSnapshot struct {
	Site      string    `json:"site"`
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Stats     ItemStats `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the item key the snapshot describes.
func (s *ItemSnapshot) Key() ItemKey {
	return ItemKey{Site: s.Site, ContentID: s.ContentID}
}

// Item is a full content record as the persistence layer reports it:
// snapshot metadata plus the current audit disposition.
type Item struct {
	Site      string    `json:"site"`
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Stats     ItemStats `json:"stats"`
	Type      Category  `json:"type"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the item's canonical key.
func (i *Item) Key() ItemKey {
	return ItemKey{Site: i.Site, ContentID: i.ContentID}
}

// Snapshot extracts the cacheable metadata portion of the item.
func (i *Item) Snapshot() *ItemSnapshot {
	return &ItemSnapshot{
		Site:      i.Site,
		ContentID: i.ContentID,
		Title:     i.Title,
		Author:    i.Author,
		Tags:      i.Tags,
		Stats:     i.Stats,
		CreatedAt: i.CreatedAt,
	}
}
