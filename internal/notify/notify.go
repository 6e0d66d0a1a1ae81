// Copyright 2026 The Star4ce Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify defers non-critical side effects (outbound notification
// email, follow-up sync) off the webhook acknowledgment path. Delivery
// failures are retried independently and never fail the transition that
// enqueued them.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/observability/logger"
)

// Task is one deferred unit of follow-up work.
type Task struct {
	Kind         string
	DealershipID string
	Metadata     map[string]string
}

// Sender delivers one task. SMTP delivery and similar sit behind this
// interface; tests use a recording fake.
type Sender interface {
	Send(ctx context.Context, task Task) error
}

// Queue runs a background worker draining deferred tasks with backoff
// retry.
type Queue struct {
	sender     Sender
	tasks      chan Task
	maxRetries int
	baseDelay  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewQueue creates and starts a queue with the given buffer size.
func NewQueue(sender Sender, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		sender:     sender,
		tasks:      make(chan Task, buffer),
		maxRetries: 3,
		baseDelay:  time.Second,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue hands off a task without blocking. A full buffer drops the task
// with a warning; deferred work is best-effort by contract.
func (q *Queue) Enqueue(task Task) {
	select {
	case q.tasks <- task:
	default:
		slog.Warn("notify queue full, dropping task",
			logger.String("kind", task.Kind),
			logger.String("dealership_id", task.DealershipID),
		)
	}
}

// SubscriptionChanged implements billing.Notifier.
func (q *Queue) SubscriptionChanged(dealershipID string, previous, current billing.Status) {
	q.Enqueue(Task{
		Kind:         "subscription_changed",
		DealershipID: dealershipID,
		Metadata: map[string]string{
			"previous": string(previous),
			"current":  string(current),
		},
	})
}

// Close stops the worker after draining buffered tasks.
func (q *Queue) Close() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case task := <-q.tasks:
			q.deliver(task)
		case <-q.stop:
			for {
				select {
				case task := <-q.tasks:
					q.deliver(task)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) deliver(task Task) {
	ctx := context.Background()
	delay := q.baseDelay
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		err := q.sender.Send(ctx, task)
		if err == nil {
			return
		}
		slog.Warn("notify delivery failed",
			logger.Error(err),
			logger.String("kind", task.Kind),
			logger.String("dealership_id", task.DealershipID),
			slog.Int("attempt", attempt+1),
		)
	}
	slog.Error("notify delivery abandoned",
		logger.String("kind", task.Kind),
		logger.String("dealership_id", task.DealershipID),
	)
}

// LogSender logs tasks instead of delivering them; the default when no
// SMTP relay is configured.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(ctx context.Context, task Task) error {
	slog.InfoContext(ctx, "notification",
		logger.String("kind", task.Kind),
		logger.String("dealership_id", task.DealershipID),
	)
	return nil
}
