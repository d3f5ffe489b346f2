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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		typ    Category
		status Status
		action Action
		reason string
		want   Decision
	}{
		{
			name:   "approve keeps category",
			typ:    CategorySFW,
			status: StatusInit,
			action: ActionApprove,
			want:   Decision{Type: CategorySFW, Status: StatusPass},
		},
		{
			name:   "approve unclassified defaults to SFW",
			typ:    CategoryUnclassified,
			status: StatusInit,
			action: ActionApprove,
			want:   Decision{Type: CategorySFW, Status: StatusPass},
		},
		{
			name:   "plain reject keeps reason verbatim",
			typ:    CategorySFW,
			status: StatusInit,
			action: ActionReject,
			reason: "low quality",
			want:   Decision{Type: CategorySFW, Status: StatusReject, Reason: "low quality"},
		},
		{
			name:   "reject naming R18 reclassifies",
			typ:    CategorySFW,
			status: StatusInit,
			action: ActionReject,
			reason: "this belongs in r18",
			want:   Decision{Type: CategoryR18, Status: StatusInit},
		},
		{
			name:   "reject naming NSFW reclassifies",
			typ:    CategoryR18,
			status: StatusInit,
			action: ActionReject,
			reason: "not explicit, just NSFW",
			want:   Decision{Type: CategoryNSFW, Status: StatusInit},
		},
		{
			name:   "reason naming current category is a plain reject",
			typ:    CategoryR18,
			status: StatusInit,
			action: ActionReject,
			reason: "bad R18 art",
			want:   Decision{Type: CategoryR18, Status: StatusReject, Reason: "bad R18 art"},
		},
		{
			name:   "no demotion path back to SFW",
			typ:    CategoryNSFW,
			status: StatusInit,
			action: ActionReject,
			reason: "actually SFW",
			want:   Decision{Type: CategoryNSFW, Status: StatusReject, Reason: "actually SFW"},
		},
		{
			name:   "push stamps the terminal status",
			typ:    CategorySFW,
			status: StatusPass,
			action: ActionPush,
			want:   Decision{Type: CategorySFW, Status: StatusPush},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.typ, tt.status, tt.action, tt.reason)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecisionReclassified(t *testing.T) {
	d := Decision{Type: CategoryR18, Status: StatusInit}
	assert.True(t, d.Reclassified(CategorySFW))
	assert.False(t, d.Reclassified(CategoryR18))

	closed := Decision{Type: CategorySFW, Status: StatusReject}
	assert.False(t, closed.Reclassified(CategorySFW))
}
