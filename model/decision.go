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

import "strings"

// Action is a moderator verdict on a checked-out item.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPush    Action = "push"
)

// Decision is the computed outcome of applying a moderator action to an
// item's current classification.
type Decision struct {
	Type   Category
	Status Status
	Reason string
}

// Reclassified reports whether the decision moves the item into another
// category's audit queue instead of closing it out.
func (d Decision) Reclassified(current Category) bool {
	return d.Status == StatusInit && d.Type != current
}

// Decide computes the next audit state for an item. It is a pure function;
// persistence and queue membership are the caller's problem.
//
// Approving an unclassified item defaults it to SFW. A rejection whose
// reason names another category reclassifies the item into that category
// with a fresh INIT status rather than terminally rejecting it, so it
// re-enters that category's audit flow. There is deliberately no path that
// demotes NSFW or R18 content back to SFW via a rejection reason.
func Decide(currentType Category, currentStatus Status, action Action, reason string) Decision {
	switch action {
	case ActionApprove:
		t := currentType
		if !t.Reviewable() {
			t = CategorySFW
		}
		return Decision{Type: t, Status: StatusPass}
	case ActionPush:
		return Decision{Type: currentType, Status: StatusPush}
	case ActionReject:
		if target, ok := reclassifyTarget(currentType, reason); ok {
			return Decision{Type: target, Status: StatusInit}
		}
		return Decision{Type: currentType, Status: StatusReject, Reason: reason}
	}
	return Decision{Type: currentType, Status: currentStatus, Reason: reason}
}

// reclassifyTarget scans a rejection reason for the name of a different
// category. Matching is an exact substring check on the upper-cased reason;
// note "NSFW" must be probed before any looser matching since it contains
// "SFW" as a suffix.
func reclassifyTarget(current Category, reason string) (Category, bool) {
	upper := strings.ToUpper(reason)
	if strings.Contains(upper, string(CategoryR18)) && current != CategoryR18 {
		return CategoryR18, true
	}
	if strings.Contains(upper, string(CategoryNSFW)) && current != CategoryNSFW {
		return CategoryNSFW, true
	}
	return "", false
}
