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

package queue

import (
	"fmt"
	"strings"

	"github.com/artcurate/curate/model"
)

// Names holds the cache key names owned by one category's queue triple.
// Ctime is an internal side hash mapping members to their content creation
// timestamp so a putback can restore the original audit ordering.
type Names struct {
	Audit   string
	Pending string
	Push    string
	Ctime   string
}

// NamesFor derives the queue key names for a category. Pure function of
// prefix and category; names are distinct per category so items can never
// leak across classification boundaries.
func NamesFor(prefix string, category model.Category) Names {
	base := fmt.Sprintf("%s:%s", prefix, strings.ToLower(category.String()))
	return Names{
		Audit:   base + ":audit",
		Pending: base + ":pending",
		Push:    base + ":push",
		Ctime:   base + ":ctime",
	}
}
