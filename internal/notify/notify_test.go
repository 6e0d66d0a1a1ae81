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

package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures delivered tasks and can fail the first n sends.
type recordingSender struct {
	mu       sync.Mutex
	tasks    []Task
	failures int
}

func (r *recordingSender) Send(ctx context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("relay unavailable")
	}
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *recordingSender) delivered() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Task(nil), r.tasks...)
}

func TestQueueDeliversOnClose(t *testing.T) {
	sender := &recordingSender{}
	q := NewQueue(sender, 8)

	q.Enqueue(Task{Kind: "welcome", DealershipID: "dlr_1"})
	q.SubscriptionChanged("dlr_2", billing.StatusActive, billing.StatusCanceled)
	q.Close()

	got := sender.delivered()
	require.Len(t, got, 2)
	assert.Equal(t, "welcome", got[0].Kind)
	assert.Equal(t, "subscription_changed", got[1].Kind)
	assert.Equal(t, string(billing.StatusActive), got[1].Metadata["previous"])
	assert.Equal(t, string(billing.StatusCanceled), got[1].Metadata["current"])
}

func TestQueueRetriesTransientFailure(t *testing.T) {
	sender := &recordingSender{failures: 2}
	q := NewQueue(sender, 8)
	q.baseDelay = 0 // no need to wait in tests

	q.Enqueue(Task{Kind: "welcome", DealershipID: "dlr_1"})
	q.Close()

	require.Len(t, sender.delivered(), 1)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	sender := &recordingSender{failures: 100}
	q := NewQueue(sender, 8)
	q.baseDelay = 0

	q.Enqueue(Task{Kind: "welcome", DealershipID: "dlr_1"})
	q.Close()

	assert.Empty(t, sender.delivered())
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	q := NewQueue(&recordingSender{}, 1)
	q.Close()
	q.Close()
}
