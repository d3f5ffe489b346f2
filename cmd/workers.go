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

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/artcurate/curate/config"
	redis_db "github.com/artcurate/curate/internal/redis-db"
	"github.com/artcurate/curate/model"
)

// sweepInterval is how often the background sweeper scans for expired
// pending holds. It is a safety net behind the per-item expiry tasks, so
// it does not need to be tight.
const sweepInterval = 5 * time.Minute

func initializeQueues() map[string]int {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return nil
	}

	queues := make(map[string]int)
	queues[cfg.Queue.ExpiryQueue] = 3
	return queues
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

func initializeTaskHandlers(c *curatorInstance, mux *asynq.ServeMux) {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return
	}

	mux.HandleFunc(cfg.Queue.ExpiryQueue, c.curator.HandlePendingExpiry)
}

// runSweeper loops over every reviewable category and requeues expired
// pending holds. Catches checkouts whose expiry task was lost.
func runSweeper(ctx context.Context, c *curatorInstance) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, category := range model.Categories {
				if _, err := c.curator.SweepPending(ctx, category); err != nil {
					logrus.Errorf("sweep %s: %v", category, err)
				}
			}
		}
	}
}

// workerCommands defines the "workers" command: the asynq server handling
// pending-expiry tasks plus the periodic sweeper.
func workerCommands(c *curatorInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start curation workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queues := initializeQueues()

			srv, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(c, mux)

			go runSweeper(ctx, c)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}

// sweepCommands runs one sweep across every category and exits. Useful
// from cron or for manual recovery.
func sweepCommands(c *curatorInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "requeue expired pending holds once",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			for _, category := range model.Categories {
				n, err := c.curator.SweepPending(ctx, category)
				if err != nil {
					log.Printf("Error sweeping %s: %v", category, err)
					continue
				}
				fmt.Printf("%s: requeued %d expired holds\n", category, n)
			}
		},
	}

	return cmd
}
