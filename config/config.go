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
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5080"

	// DefaultQueuePrefix namespaces every queue key in the shared cache.
	DefaultQueuePrefix = "curate"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"CURATE_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"CURATE_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"CURATE_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"CURATE_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"CURATE_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"CURATE_REDIS_SKIP_TLS_VERIFY"`
}

// QueueConfig tunes the audit queue engine. PendingHoldMinutes is the
// review window: a popped item sits in pending that long before it becomes
// eligible for putback.
type QueueConfig struct {
	Prefix             string `json:"prefix" envconfig:"CURATE_QUEUE_PREFIX"`
	PendingHoldMinutes int    `json:"pending_hold_minutes" envconfig:"CURATE_QUEUE_PENDING_HOLD_MINUTES"`
	SnapshotTTLMinutes int    `json:"snapshot_ttl_minutes" envconfig:"CURATE_QUEUE_SNAPSHOT_TTL_MINUTES"`
	ExpiryQueue        string `json:"expiry_queue" envconfig:"CURATE_QUEUE_EXPIRY_QUEUE"`
}

type RateLimitConfig struct {
	RequestsPerSecond *float64 `json:"requests_per_second" envconfig:"CURATE_RATE_LIMIT_RPS"`
	Burst             *int     `json:"burst" envconfig:"CURATE_RATE_LIMIT_BURST"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

// SiteConfig holds the endpoints of the content-info providers. Empty
// endpoints fall back to each site's public API.
type SiteConfig struct {
	PixivEndpoint    string `json:"pixiv_endpoint" envconfig:"CURATE_SITE_PIXIV_ENDPOINT"`
	TwitterEndpoint  string `json:"twitter_endpoint" envconfig:"CURATE_SITE_TWITTER_ENDPOINT"`
	DanbooruEndpoint string `json:"danbooru_endpoint" envconfig:"CURATE_SITE_DANBOORU_ENDPOINT"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"CURATE_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Queue        QueueConfig      `json:"queue"`
	Sites        SiteConfig       `json:"sites"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

// PendingHold returns the review window as a duration.
func (cnf *Configuration) PendingHold() time.Duration {
	return time.Duration(cnf.Queue.PendingHoldMinutes) * time.Minute
}

// SnapshotTTL returns the snapshot cache expiry as a duration.
func (cnf *Configuration) SnapshotTTL() time.Duration {
	return time.Duration(cnf.Queue.SnapshotTTLMinutes) * time.Minute
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("curate", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called curate.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Curate Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.Prefix == "" {
		cnf.Queue.Prefix = DefaultQueuePrefix
	}
	if cnf.Queue.PendingHoldMinutes <= 0 {
		cnf.Queue.PendingHoldMinutes = 10
	}
	if cnf.Queue.SnapshotTTLMinutes <= 0 {
		cnf.Queue.SnapshotTTLMinutes = 60
	}
	if cnf.Queue.ExpiryQueue == "" {
		cnf.Queue.ExpiryQueue = "pending_expiry"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.Queue.Prefix == "" {
		mockConfig.Queue.Prefix = DefaultQueuePrefix
	}
	if mockConfig.Queue.PendingHoldMinutes <= 0 {
		mockConfig.Queue.PendingHoldMinutes = 10
	}
	if mockConfig.Queue.SnapshotTTLMinutes <= 0 {
		mockConfig.Queue.SnapshotTTLMinutes = 60
	}
	if mockConfig.Queue.ExpiryQueue == "" {
		mockConfig.Queue.ExpiryQueue = "pending_expiry"
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
