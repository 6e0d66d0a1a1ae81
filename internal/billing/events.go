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

package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Provider event types. Events outside this set are accepted and recorded
// Stale so that providers adding new types never see delivery failures.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventSubscriptionExpired = "customer.subscription.expired"
)

// Internal event types for user-initiated actions routed through the same
// state machine as provider notifications.
const (
	EventCheckoutStarted = "internal.checkout_started"
	EventUserCanceled    = "internal.subscription_canceled"
)

// Envelope is the wire shape of a provider notification body.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt int64           `json:"occurred_at"` // unix seconds
	Data       EnvelopeData    `json:"data"`
	Raw        json.RawMessage `json:"-"`
}

// EnvelopeData carries the provider references needed to resolve the tenant
// and, for activation events, the initiating user and plan.
type EnvelopeData struct {
	TenantRef       string `json:"tenant_ref"`
	CustomerRef     string `json:"customer_ref,omitempty"`
	SubscriptionRef string `json:"subscription_ref,omitempty"`
	CorrelationID   string `json:"correlation_id,omitempty"`
	UserRef         string `json:"user_ref,omitempty"`
	Plan            string `json:"plan,omitempty"`
}

// Event is the normalized tuple handed to the state machine after signature
// verification.
type Event struct {
	ID              string
	Type            string
	TenantRef       string
	OccurredAt      time.Time
	UserRef         string
	Plan            Plan
	CustomerRef     string
	SubscriptionRef string
	CorrelationID   string
}

// ParseEnvelope decodes and validates a verified payload into a normalized
// event. The payload is trusted at this point; errors here mean a malformed
// envelope, recorded as a Rejected outcome.
func ParseEnvelope(payload []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrMalformedEnvelope)
	}
	if env.Data.TenantRef == "" && env.Data.CorrelationID == "" {
		return nil, fmt.Errorf("%w: no tenant reference", ErrMalformedEnvelope)
	}
	if env.OccurredAt <= 0 {
		return nil, fmt.Errorf("%w: missing occurred_at", ErrMalformedEnvelope)
	}

	return &Event{
		ID:              env.ID,
		Type:            env.Type,
		TenantRef:       env.Data.TenantRef,
		OccurredAt:      time.Unix(env.OccurredAt, 0).UTC(),
		UserRef:         env.Data.UserRef,
		Plan:            Plan(env.Data.Plan),
		CustomerRef:     env.Data.CustomerRef,
		SubscriptionRef: env.Data.SubscriptionRef,
		CorrelationID:   env.Data.CorrelationID,
	}, nil
}

// Outcome is the recorded result of processing one inbound event delivery.
// All four outcomes are expected, non-exceptional results.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeDuplicateIgnored Outcome = "duplicate_ignored"
	OutcomeStale            Outcome = "stale"
	OutcomeRejected         Outcome = "rejected"
)

// ProcessedEvent is one row of the deduplication log. Rows are append-only;
// the only mutation ever made is settling the outcome of the row's own
// delivery.
type ProcessedEvent struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	TenantRef  string    `json:"tenant_ref"`
	ReceivedAt time.Time `json:"received_at"`
	Outcome    Outcome   `json:"outcome"`
}

// Result is what webhook processing reports back to the transport layer.
type Result struct {
	Outcome Outcome `json:"outcome"`
	EventID string  `json:"event_id"`
	Status  Status  `json:"status,omitempty"`
}
