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

package sites

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/internal/request"
	"github.com/artcurate/curate/model"
)

// itemResponse is the JSON shape the site endpoints (or their proxies)
// answer with.
type itemResponse struct {
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Views     int64     `json:"views"`
	Bookmarks int64     `json:"bookmarks"`
	CreatedAt time.Time `json:"created_at"`
	Media     []Media   `json:"media"`
}

type httpProvider struct {
	site     Site
	endpoint string
}

func newHTTPProvider(site Site, endpoint string) *httpProvider {
	return &httpProvider{site: site, endpoint: endpoint}
}

// Fetch pulls item metadata with a short exponential backoff. A 404 or any
// 4xx is permanent: the content is gone or forbidden upstream and retrying
// would just block the queue.
func (p *httpProvider) Fetch(ctx context.Context, contentID string) (*model.ItemSnapshot, []Media, error) {
	url := fmt.Sprintf("%s/%s", p.endpoint, contentID)

	var body itemResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := request.Call(req, &body)
		if err != nil {
			if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s responded %d", p.site, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%s responded %d for %s", p.site, resp.StatusCode, contentID))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, nil, moderr.New(moderr.ErrContentFetchFailed,
			fmt.Sprintf("%s item %s unreachable", p.site, contentID), err)
	}

	snapshot := &model.ItemSnapshot{
		Site:      p.site.String(),
		ContentID: contentID,
		Title:     body.Title,
		Author:    body.Author,
		Tags:      body.Tags,
		Stats:     model.ItemStats{Views: body.Views, Bookmarks: body.Bookmarks},
		CreatedAt: body.CreatedAt,
	}
	return snapshot, body.Media, nil
}
