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

package curate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/artcurate/curate/config"
	redlock "github.com/artcurate/curate/internal/lock"
	redis_db "github.com/artcurate/curate/internal/redis-db"
	"github.com/artcurate/curate/model"
)

// ExpiryScheduler schedules a putback for a checked-out item in case the
// moderator walks away mid-review.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, category model.Category, key model.ItemKey, processIn time.Duration) error
}

type expiryPayload struct {
	Category model.Category `json:"category"`
	Key      string         `json:"key"`
}

// TaskScheduler schedules expiry tasks on the shared Redis through asynq.
type TaskScheduler struct {
	client *asynq.Client
}

// NewTaskScheduler builds the asynq client from configuration.
func NewTaskScheduler(conf *config.Configuration) (*TaskScheduler, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	})
	return &TaskScheduler{client: client}, nil
}

// ScheduleExpiry enqueues a delayed putback task for one checked-out item.
// The task id is derived from the item so a double pop within one hold
// window does not stack duplicate tasks.
func (s *TaskScheduler) ScheduleExpiry(ctx context.Context, category model.Category, key model.ItemKey, processIn time.Duration) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(expiryPayload{Category: category, Key: key.String()})
	if err != nil {
		return err
	}

	task := asynq.NewTask(cfg.Queue.ExpiryQueue, payload,
		asynq.TaskID(fmt.Sprintf("expire:%s:%s", category, key)),
		asynq.Queue(cfg.Queue.ExpiryQueue),
		asynq.ProcessIn(processIn),
	)
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// a putback for this checkout window is already scheduled
			return nil
		}
		return err
	}
	logrus.Debugf("scheduled pending expiry for %s in %s", key, processIn)
	return nil
}

// NoopScheduler skips expiry scheduling. Hosts that rely solely on the
// pending key TTL and the sweep command use this.
type NoopScheduler struct{}

func (NoopScheduler) ScheduleExpiry(context.Context, model.Category, model.ItemKey, time.Duration) error {
	return nil
}

// HandlePendingExpiry is the asynq handler for expiry tasks: if the item
// still sits in pending after its hold window, put it back into audit.
// Already-finalized items make this a no-op.
func (cu *Curator) HandlePendingExpiry(ctx context.Context, task *asynq.Task) error {
	var payload expiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return errors.Wrap(err, "decoding expiry payload")
	}

	key, err := model.ParseItemKey(payload.Key)
	if err != nil {
		return err
	}

	if err := cu.engine.CancelPending(ctx, payload.Category, key); err != nil {
		return err
	}
	logrus.Infof("pending hold expired for %s, returned to %s audit queue", key, payload.Category)
	return nil
}

// SweepPending requeues every expired pending hold of a category. Guarded
// by a redlock so concurrent sweepers from other processes back off.
// Returns the number of items put back.
func (cu *Curator) SweepPending(ctx context.Context, category model.Category) (int, error) {
	ctx, span := tracer.Start(ctx, "Sweeping expired pending holds")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return 0, err
	}

	locker := redlock.ForSweep(cu.redis, cfg.Queue.Prefix, category)
	if err := locker.Lock(ctx, 30*time.Second); err != nil {
		// another process is sweeping this category
		logrus.Debugf("sweep skipped: %v", err)
		return 0, nil
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Warnf("sweep unlock: %v", err)
		}
	}()

	expired, err := cu.engine.ExpiredPending(ctx, category)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, key := range expired {
		if err := cu.engine.CancelPending(ctx, category, key); err != nil {
			return requeued, err
		}
		requeued++
	}
	if requeued > 0 {
		logrus.Infof("sweep returned %d expired holds to %s audit queue", requeued, category)
	}
	return requeued, nil
}
