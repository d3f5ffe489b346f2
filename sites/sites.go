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

// Package sites resolves item metadata from the originating art sites.
// The set of supported sites is closed and compile-time known; selection
// happens over an explicit enum, never by probing handler registries.
package sites

import (
	"context"
	"fmt"

	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
)

// Site enumerates the supported content sources.
type Site int

const (
	SiteUnknown Site = iota
	SitePixiv
	SiteTwitter
	SiteDanbooru
)

var siteNames = map[Site]string{
	SitePixiv:    "pixiv",
	SiteTwitter:  "twitter",
	SiteDanbooru: "danbooru",
}

func (s Site) String() string {
	if name, ok := siteNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSite resolves the site portion of an item key.
func ParseSite(name string) (Site, error) {
	for site, n := range siteNames {
		if n == name {
			return site, nil
		}
	}
	return SiteUnknown, fmt.Errorf("unsupported site %q", name)
}

// Media is a displayable asset attached to an item.
type Media struct {
	URL  string `json:"url"`
	Kind string `json:"kind"` // "image" or "video"
}

// Provider fetches metadata and media for one site's content ids.
type Provider interface {
	Fetch(ctx context.Context, contentID string) (*model.ItemSnapshot, []Media, error)
}

// Registry holds one provider per supported site.
type Registry struct {
	pixiv    Provider
	twitter  Provider
	danbooru Provider
}

// Default public endpoints, overridable per site in the configuration for
// proxies and tests.
const (
	defaultPixivEndpoint    = "https://www.pixiv.net/ajax/illust"
	defaultTwitterEndpoint  = "https://api.twitter.com/2/tweets"
	defaultDanbooruEndpoint = "https://danbooru.donmai.us/posts"
)

// NewRegistry wires the per-site HTTP providers from configuration.
func NewRegistry(conf *config.Configuration) *Registry {
	return &Registry{
		pixiv:    newHTTPProvider(SitePixiv, orDefault(conf.Sites.PixivEndpoint, defaultPixivEndpoint)),
		twitter:  newHTTPProvider(SiteTwitter, orDefault(conf.Sites.TwitterEndpoint, defaultTwitterEndpoint)),
		danbooru: newHTTPProvider(SiteDanbooru, orDefault(conf.Sites.DanbooruEndpoint, defaultDanbooruEndpoint)),
	}
}

// NewRegistryWithProviders builds a registry from explicit providers.
// Used by tests and by hosts that bring their own fetch layer.
func NewRegistryWithProviders(pixiv, twitter, danbooru Provider) *Registry {
	return &Registry{pixiv: pixiv, twitter: twitter, danbooru: danbooru}
}

// Fetch dispatches on the item key's site. Any failure comes back as a
// CONTENT_FETCH_FAILED moderr so the orchestrator can pull the item out of
// rotation.
func (r *Registry) Fetch(ctx context.Context, key model.ItemKey) (*model.ItemSnapshot, []Media, error) {
	site, err := ParseSite(key.Site)
	if err != nil {
		return nil, nil, moderr.New(moderr.ErrContentFetchFailed, err.Error(), err)
	}

	var provider Provider
	switch site {
	case SitePixiv:
		provider = r.pixiv
	case SiteTwitter:
		provider = r.twitter
	case SiteDanbooru:
		provider = r.danbooru
	}
	if provider == nil {
		return nil, nil, moderr.New(moderr.ErrContentFetchFailed, fmt.Sprintf("no provider for site %s", site), nil)
	}

	snapshot, media, err := provider.Fetch(ctx, key.ContentID)
	if err != nil {
		if moderr.Is(err, moderr.ErrContentFetchFailed) {
			return nil, nil, err
		}
		return nil, nil, moderr.New(moderr.ErrContentFetchFailed, fmt.Sprintf("fetching %s", key), err)
	}
	return snapshot, media, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
