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

// Package curate is the orchestration layer of the curation bot's audit
// and push queues. It coordinates the Redis queue engine with the audit
// record store and the per-site content-info providers; chat UI layers call
// into it and render whatever it returns.
package curate

import (
	"embed"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/artcurate/curate/cache"
	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/database"
	redis_db "github.com/artcurate/curate/internal/redis-db"
	"github.com/artcurate/curate/queue"
	"github.com/artcurate/curate/sites"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("Curation queue")

// auditBatchSize bounds how many unreviewed items one AuditStart pulls
// from the record store into the queue.
const auditBatchSize = 100

// Curator is the orchestration service. All collaborators are injected;
// nothing in here reaches for process-wide connection singletons.
type Curator struct {
	datasource database.IDataSource
	engine     *queue.Engine
	snapshots  *cache.SnapshotStore
	registry   *sites.Registry
	scheduler  ExpiryScheduler
	redis      redis.UniversalClient
}

// NewCurator wires a Curator from the loaded configuration and the given
// datasource.
func NewCurator(db database.IDataSource) (*Curator, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	// the configured address may be a bare host:port or a full redis:// URL;
	// ParseRedisURL handles both, so it goes through untouched
	redisClient, err := redis_db.NewRedisClient(
		[]string{configuration.Redis.Dns},
		configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	scheduler, err := NewTaskScheduler(configuration)
	if err != nil {
		return nil, err
	}

	return NewCuratorWithDependencies(db, redisClient.Client(), sites.NewRegistry(configuration), scheduler)
}

// NewCuratorWithDependencies builds a Curator over explicit collaborators.
// Tests hand in a miniredis-backed client and mock providers through here.
func NewCuratorWithDependencies(db database.IDataSource, redisClient redis.UniversalClient, registry *sites.Registry, scheduler ExpiryScheduler) (*Curator, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	engine := queue.NewEngine(redisClient, configuration.Queue.Prefix, configuration.PendingHold())

	return &Curator{
		datasource: db,
		engine:     engine,
		snapshots:  cache.NewSnapshotStore(redisClient),
		registry:   registry,
		scheduler:  scheduler,
		redis:      redisClient,
	}, nil
}

// Engine exposes the queue engine, mainly for size probes.
func (cu *Curator) Engine() *queue.Engine {
	return cu.engine
}
