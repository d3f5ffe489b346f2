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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFromEnv(t *testing.T) {
	t.Setenv("CURATE_DATA_SOURCE_DNS", "postgres://localhost:5432/curate?sslmode=disable")
	t.Setenv("CURATE_REDIS_DNS", "localhost:6379")
	t.Setenv("CURATE_QUEUE_PREFIX", "curate_test")

	require.NoError(t, InitConfig("nonexistent.json"))

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/curate?sslmode=disable", cnf.DataSource.Dns)
	assert.Equal(t, "localhost:6379", cnf.Redis.Dns)
	assert.Equal(t, "curate_test", cnf.Queue.Prefix)

	// defaults fill the gaps
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, "Curate Server", cnf.ProjectName)
	assert.Equal(t, 10*time.Minute, cnf.PendingHold())
	assert.Equal(t, 60*time.Minute, cnf.SnapshotTTL())
	assert.Equal(t, "pending_expiry", cnf.Queue.ExpiryQueue)
}

func TestInitConfigRequiresDataSource(t *testing.T) {
	t.Setenv("CURATE_DATA_SOURCE_DNS", "")
	t.Setenv("CURATE_REDIS_DNS", "localhost:6379")

	assert.Error(t, InitConfig("nonexistent.json"))
}

func TestInitConfigRequiresRedis(t *testing.T) {
	t.Setenv("CURATE_DATA_SOURCE_DNS", "postgres://localhost:5432/curate")
	t.Setenv("CURATE_REDIS_DNS", "")

	assert.Error(t, InitConfig("nonexistent.json"))
}

func TestRateLimitDefaults(t *testing.T) {
	t.Setenv("CURATE_DATA_SOURCE_DNS", "postgres://localhost:5432/curate")
	t.Setenv("CURATE_REDIS_DNS", "localhost:6379")
	t.Setenv("CURATE_RATE_LIMIT_RPS", "10")

	require.NoError(t, InitConfig("nonexistent.json"))

	cnf, err := Fetch()
	require.NoError(t, err)
	require.NotNil(t, cnf.RateLimit.RequestsPerSecond)
	require.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, float64(10), *cnf.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, *cnf.RateLimit.Burst)
}

func TestMockConfigDefaults(t *testing.T) {
	MockConfig(&Configuration{Redis: RedisConfig{Dns: "localhost:6379"}})

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, DefaultQueuePrefix, cnf.Queue.Prefix)
	assert.Equal(t, 10, cnf.Queue.PendingHoldMinutes)
	assert.Equal(t, 60, cnf.Queue.SnapshotTTLMinutes)
}
