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
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/artcurate/curate/model"
)

// ItemRef names one item inside a category route.
type ItemRef struct {
	Site      string `json:"site"`
	ContentID string `json:"content_id"`
}

func (r *ItemRef) ValidateItemRef() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Site, validation.Required),
		validation.Field(&r.ContentID, validation.Required),
	)
}

// ToItemKey converts the request body into the domain key.
func (r *ItemRef) ToItemKey() model.ItemKey {
	return model.ItemKey{Site: r.Site, ContentID: r.ContentID}
}

// RejectItem is the body of an audit rejection.
type RejectItem struct {
	Site      string `json:"site"`
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
}

func (r *RejectItem) ValidateRejectItem() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Site, validation.Required),
		validation.Field(&r.ContentID, validation.Required),
		validation.Field(&r.Reason, validation.Required),
	)
}

func (r *RejectItem) ToItemKey() model.ItemKey {
	return model.ItemKey{Site: r.Site, ContentID: r.ContentID}
}
