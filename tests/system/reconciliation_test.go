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

// Package system holds whole-engine reconciliation tests: randomized event
// streams with redelivery, reordering, and concurrency are pushed through
// the subscription state machine, and the resulting store is checked
// against the invariants the engine promises.
package system

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_system"

func newEngine(t *testing.T) (*billing.Service, *billing.SignatureVerifier, *memory.Store) {
	t.Helper()
	store := memory.New()
	verifier := billing.NewSignatureVerifier(secret)
	svc := billing.NewService(store.Billing(), verifier, audit.NewSlogLogger(), nil, billing.Config{
		CheckoutURL: "https://pay.example.com/checkout",
		MaxRetries:  200,
	})
	return svc, verifier, store
}

func signedEnvelope(v *billing.SignatureVerifier, id, eventType, tenant string, at int64) ([]byte, string) {
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"occurred_at":%d,"data":{"tenant_ref":%q}}`,
		id, eventType, at, tenant,
	))
	return payload, v.Sign(payload)
}

var providerEvents = []string{
	billing.EventCheckoutCompleted,
	billing.EventPaymentSucceeded,
	billing.EventPaymentFailed,
	billing.EventSubscriptionUpdated,
	billing.EventSubscriptionDeleted,
	billing.EventSubscriptionExpired,
}

// checkInvariants verifies the whole-store reconciliation promises for one
// dealership after an arbitrary delivery history.
func checkInvariants(t *testing.T, svc *billing.Service, store *memory.Store, dealershipID string, eventIDs []string) {
	t.Helper()
	ctx := context.Background()

	rec, err := svc.GetSubscription(ctx, dealershipID)
	require.NoError(t, err)
	assert.True(t, rec.Status.IsValid(), "status %q", rec.Status)

	applied := 0
	for _, id := range eventIDs {
		deliveries, err := svc.ListEventDeliveries(ctx, id)
		require.NoError(t, err)

		appliedForID := 0
		for _, d := range deliveries {
			switch d.Outcome {
			case billing.OutcomeApplied:
				appliedForID++
			case billing.OutcomeDuplicateIgnored, billing.OutcomeStale, billing.OutcomeRejected:
			default:
				t.Fatalf("unknown outcome %q", d.Outcome)
			}
		}
		assert.LessOrEqual(t, appliedForID, 1, "event %s applied more than once", id)
		applied += appliedForID
	}

	// Version counts exactly the applied transitions, and each applied
	// transition wrote exactly one audit entry.
	assert.Equal(t, int64(1+applied), rec.Version)
	n, err := store.Audit().Count(ctx, audit.Filter{Actor: audit.ActorSystemWebhook})
	require.NoError(t, err)
	assert.Equal(t, int64(applied), n)
}

func TestReconciliationRandomizedStream(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		svc, verifier, store := newEngine(t)
		ctx := context.Background()
		_, err := svc.CreateRecord(ctx, "dlr_1")
		require.NoError(t, err)

		// Build a batch of deliveries with duplicates and shuffled order.
		type delivery struct {
			payload []byte
			sig     string
		}
		var deliveries []delivery
		var eventIDs []string
		for i := 0; i < 30; i++ {
			id := fmt.Sprintf("evt_%d_%d", trial, i)
			eventIDs = append(eventIDs, id)
			payload, sig := signedEnvelope(verifier,
				id,
				providerEvents[rng.Intn(len(providerEvents))],
				"dlr_1",
				int64(1+rng.Intn(1000)),
			)
			copies := 1 + rng.Intn(3)
			for c := 0; c < copies; c++ {
				deliveries = append(deliveries, delivery{payload, sig})
			}
		}
		rng.Shuffle(len(deliveries), func(i, j int) {
			deliveries[i], deliveries[j] = deliveries[j], deliveries[i]
		})

		for _, d := range deliveries {
			_, err := svc.ProcessWebhook(ctx, d.payload, d.sig)
			require.NoError(t, err)
		}

		checkInvariants(t, svc, store, "dlr_1", eventIDs)
	}
}

func TestReconciliationConcurrentDeliveries(t *testing.T) {
	svc, verifier, store := newEngine(t)
	ctx := context.Background()
	_, err := svc.CreateRecord(ctx, "dlr_1")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	var eventIDs []string
	type delivery struct {
		payload []byte
		sig     string
	}
	var deliveries []delivery
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("evt_%d", i)
		eventIDs = append(eventIDs, id)
		payload, sig := signedEnvelope(verifier,
			id,
			providerEvents[rng.Intn(len(providerEvents))],
			"dlr_1",
			int64(1+i),
		)
		// Every event delivered twice, concurrently.
		deliveries = append(deliveries, delivery{payload, sig}, delivery{payload, sig})
	}

	var wg sync.WaitGroup
	for _, d := range deliveries {
		wg.Add(1)
		go func(d delivery) {
			defer wg.Done()
			_, err := svc.ProcessWebhook(ctx, d.payload, d.sig)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	checkInvariants(t, svc, store, "dlr_1", eventIDs)
}

func TestReconciliationLateEventsAfterTombstone(t *testing.T) {
	svc, verifier, store := newEngine(t)
	ctx := context.Background()
	_, err := svc.CreateRecord(ctx, "dlr_1")
	require.NoError(t, err)

	payload, sig := signedEnvelope(verifier, "evt_1", billing.EventCheckoutCompleted, "dlr_1", 100)
	_, err = svc.ProcessWebhook(ctx, payload, sig)
	require.NoError(t, err)

	payload, sig = signedEnvelope(verifier, "evt_2", billing.EventSubscriptionDeleted, "dlr_1", 200)
	_, err = svc.ProcessWebhook(ctx, payload, sig)
	require.NoError(t, err)

	// The record is retained after cancellation, so late provider events
	// resolve against it and settle as stale instead of erroring.
	payload, sig = signedEnvelope(verifier, "evt_3", billing.EventPaymentSucceeded, "dlr_1", 150)
	res, err := svc.ProcessWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeStale, res.Outcome)

	checkInvariants(t, svc, store, "dlr_1", []string{"evt_1", "evt_2", "evt_3"})
}
