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
)

// Category partitions the moderation queues. Each category owns its own
// audit/pending/push triple; an item sits in at most one category's active
// queue at a time.
type Category string

const (
	CategoryUnclassified Category = "UNCLASSIFIED"
	CategorySFW          Category = "SFW"
	CategoryNSFW         Category = "NSFW"
	CategoryR18          Category = "R18"
)

// Categories lists every reviewable category, in escalation order.
var Categories = []Category{CategorySFW, CategoryNSFW, CategoryR18}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(raw string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(CategorySFW):
		return CategorySFW, nil
	case string(CategoryNSFW):
		return CategoryNSFW, nil
	case string(CategoryR18):
		return CategoryR18, nil
	case string(CategoryUnclassified), "":
		return CategoryUnclassified, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

func (c Category) String() string {
	return string(c)
}

// Reviewable reports whether the category owns a queue triple.
func (c Category) Reviewable() bool {
	return c == CategorySFW || c == CategoryNSFW || c == CategoryR18
}

// AuditTypes lists the record types whose items surface in this category's
// review. Unclassified items have no queue of their own; they ride along
// with SFW, where approving one defaults it to SFW and rejecting with a
// category keyword escalates it.
func (c Category) AuditTypes() []Category {
	if c == CategorySFW {
		return []Category{CategorySFW, CategoryUnclassified}
	}
	return []Category{c}
}

// Status is the audit disposition of an item. INIT items are awaiting
// review; PASS, REJECT and PUSH are terminal for their category.
type Status string

const (
	StatusInit   Status = "INIT"
	StatusPass   Status = "PASS"
	StatusReject Status = "REJECT"
	StatusPush   Status = "PUSH"
)
