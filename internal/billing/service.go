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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

// Notifier receives non-critical follow-up work after a transition commits.
// Webhook acknowledgment never waits on it and its failures never fail the
// transition.
type Notifier interface {
	SubscriptionChanged(dealershipID string, previous, current Status)
}

// NoopNotifier discards notifications.
type NoopNotifier struct{}

// SubscriptionChanged implements Notifier.
func (NoopNotifier) SubscriptionChanged(string, Status, Status) {}

// Config holds state machine tunables.
type Config struct {
	// CheckoutURL is the provider-hosted checkout page; the correlation id
	// is appended as a query parameter.
	CheckoutURL string
	// MaxRetries bounds the optimistic-concurrency retry loop for one
	// transition.
	MaxRetries int
}

// Service is the subscription state machine. It consumes verified provider
// events and user-initiated actions and is the only writer of subscription
// status fields.
type Service struct {
	store    Store
	verifier *SignatureVerifier
	security audit.Logger
	notifier Notifier
	cfg      Config
}

// NewService creates the subscription state machine service.
func NewService(store Store, verifier *SignatureVerifier, security audit.Logger, notifier Notifier, cfg Config) *Service {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Service{
		store:    store,
		verifier: verifier,
		security: security,
		notifier: notifier,
		cfg:      cfg,
	}
}

// CreateRecord creates the subscription record paired with a new dealership
// account, status none.
func (s *Service) CreateRecord(ctx context.Context, dealershipID string) (*SubscriptionRecord, error) {
	now := time.Now().UTC()
	rec := &SubscriptionRecord{
		DealershipID: dealershipID,
		Status:       StatusNone,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSubscription(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create subscription record: %w", err)
	}
	return rec, nil
}

// GetSubscription returns the current record for a dealership.
func (s *Service) GetSubscription(ctx context.Context, dealershipID string) (*SubscriptionRecord, error) {
	return s.store.GetSubscription(ctx, dealershipID)
}

// ProcessWebhook handles one inbound provider delivery end to end:
// signature verification, envelope parsing, deduplication, ordering guard,
// and the version-guarded state transition. Every authenticated delivery
// leaves a dedup-log row; only a signature failure leaves none, because an
// unauthenticated payload cannot be trusted to identify itself.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if err := s.verifier.Verify(payload, signature); err != nil {
		s.security.Log(ctx, audit.SecurityEvent{
			Type:     audit.TypeSignatureRejected,
			Resource: "subscription_webhook",
			Metadata: map[string]any{"payload_bytes": len(payload)},
		})
		return nil, err
	}

	ev, err := ParseEnvelope(payload)
	if err != nil {
		return s.rejectPayload(ctx, payload, err)
	}

	rec, err := s.resolveSubscription(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return s.rejectEvent(ctx, ev, "unknown tenant reference")
		}
		return nil, err
	}

	return s.applyEvent(ctx, ev, rec)
}

// applyEvent runs the transition loop for a verified, resolved event.
func (s *Service) applyEvent(ctx context.Context, ev *Event, rec *SubscriptionRecord) (*Result, error) {
	// A delivery of an already-applied event id is a duplicate no matter
	// what the transition table would say about the current state.
	prior, err := s.store.ListEvents(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range prior {
		if p.Outcome == OutcomeApplied {
			return s.recordDuplicate(ctx, ev, rec.DealershipID)
		}
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			rec, err = s.store.GetSubscription(ctx, rec.DealershipID)
			if err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		pe := &ProcessedEvent{
			ID:         uuid.Must(uuid.NewV7()).String(),
			EventID:    ev.ID,
			EventType:  ev.Type,
			TenantRef:  rec.DealershipID,
			ReceivedAt: now,
		}

		next, defined := NextState(rec.Status, ev.Type)
		if !defined || ev.OccurredAt.Before(rec.LastEventTimestamp) {
			// Accepted, not applied. No state change, no audit entry.
			pe.Outcome = OutcomeStale
			if err := s.store.CommitTransition(ctx, pe, nil, 0, TransitionEffects{}); err != nil {
				return nil, err
			}
			return &Result{Outcome: OutcomeStale, EventID: ev.ID, Status: rec.Status}, nil
		}

		pe.Outcome = OutcomeApplied
		updated, effects := s.buildTransition(rec, ev, next, now)

		err = s.store.CommitTransition(ctx, pe, updated, rec.Version, effects)
		switch {
		case errors.Is(err, ErrEventAlreadyProcessed):
			return s.recordDuplicate(ctx, ev, rec.DealershipID)
		case errors.Is(err, ErrVersionConflict):
			continue
		case err != nil:
			return nil, err
		}

		s.notifier.SubscriptionChanged(rec.DealershipID, rec.Status, next)
		return &Result{Outcome: OutcomeApplied, EventID: ev.ID, Status: next}, nil
	}

	return nil, fmt.Errorf("transition for event %s: retries exhausted: %w", ev.ID, ErrVersionConflict)
}

// buildTransition computes the updated record and its same-transaction side
// effects.
func (s *Service) buildTransition(rec *SubscriptionRecord, ev *Event, next Status, now time.Time) (*SubscriptionRecord, TransitionEffects) {
	updated := *rec
	updated.Status = next
	updated.LastEventTimestamp = ev.OccurredAt
	updated.UpdatedAt = now
	if ev.Plan.IsValid() {
		updated.Plan = ev.Plan
	}
	if ev.CustomerRef != "" {
		updated.ProviderCustomer = ev.CustomerRef
	}
	if ev.SubscriptionRef != "" {
		updated.ProviderSubRef = ev.SubscriptionRef
	}

	switch ev.Type {
	case EventCheckoutCompleted, EventPaymentSucceeded:
		anchor := ev.OccurredAt
		updated.PeriodAnchor = &anchor
	}

	effects := TransitionEffects{
		Audit: &audit.Entry{
			ID:            uuid.Must(uuid.NewV7()).String(),
			Actor:         audit.ActorSystemWebhook,
			Action:        audit.ActionSubscriptionTransition,
			TargetEntity:  "dealership:" + rec.DealershipID,
			PreviousState: string(rec.Status),
			NewState:      string(next),
			Timestamp:     now,
		},
	}

	firstActivation := next == StatusActive && rec.ActivatedAt == nil
	if firstActivation {
		activated := ev.OccurredAt
		updated.ActivatedAt = &activated

		initiator := ev.UserRef
		if initiator == "" {
			initiator = rec.InitiatedBy
		}
		if initiator != "" {
			effects.Role = &RoleEffect{
				UserID:       initiator,
				DealershipID: rec.DealershipID,
				Grant:        true,
			}
		}
	}

	if next.IsTerminal() {
		effects.Role = &RoleEffect{DealershipID: rec.DealershipID, Grant: false}
	}

	return &updated, effects
}

// CheckoutSession is handed back to the client to start provider checkout.
// The correlation id ties the eventual webhook back to this dealership.
type CheckoutSession struct {
	RedirectURL   string `json:"redirect_url"`
	CorrelationID string `json:"correlation_id"`
}

// StartCheckout moves the record to pending_payment and issues a checkout
// correlation id.
func (s *Service) StartCheckout(ctx context.Context, dealershipID, userID string, plan Plan) (*CheckoutSession, error) {
	if !plan.IsValid() {
		return nil, fmt.Errorf("invalid plan %q", plan)
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		rec, err := s.store.GetSubscription(ctx, dealershipID)
		if err != nil {
			return nil, err
		}

		next, defined := NextState(rec.Status, EventCheckoutStarted)
		if !defined {
			return nil, fmt.Errorf("%w: status %s", ErrCheckoutNotAllowed, rec.Status)
		}

		now := time.Now().UTC()
		updated := *rec
		updated.Status = next
		updated.Plan = plan
		updated.CheckoutRef = uuid.Must(uuid.NewV7()).String()
		updated.InitiatedBy = userID
		updated.UpdatedAt = now

		effects := TransitionEffects{
			Audit: &audit.Entry{
				ID:            uuid.Must(uuid.NewV7()).String(),
				Actor:         userID,
				Action:        audit.ActionSubscriptionTransition,
				TargetEntity:  "dealership:" + dealershipID,
				PreviousState: string(rec.Status),
				NewState:      string(next),
				Timestamp:     now,
			},
		}

		err = s.store.CommitTransition(ctx, nil, &updated, rec.Version, effects)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &CheckoutSession{
			RedirectURL:   fmt.Sprintf("%s?session=%s&plan=%s", s.cfg.CheckoutURL, updated.CheckoutRef, plan),
			CorrelationID: updated.CheckoutRef,
		}, nil
	}
	return nil, fmt.Errorf("checkout for %s: retries exhausted: %w", dealershipID, ErrVersionConflict)
}

// Cancel is the user-initiated cancellation, routed through the same state
// machine path as provider events.
func (s *Service) Cancel(ctx context.Context, dealershipID, actorID string) (*SubscriptionRecord, error) {
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		rec, err := s.store.GetSubscription(ctx, dealershipID)
		if err != nil {
			return nil, err
		}

		next, defined := NextState(rec.Status, EventUserCanceled)
		if !defined {
			return nil, fmt.Errorf("%w: status %s", ErrCancelNotAllowed, rec.Status)
		}

		now := time.Now().UTC()
		updated := *rec
		updated.Status = next
		updated.UpdatedAt = now

		effects := TransitionEffects{
			Audit: &audit.Entry{
				ID:            uuid.Must(uuid.NewV7()).String(),
				Actor:         actorID,
				Action:        audit.ActionSubscriptionTransition,
				TargetEntity:  "dealership:" + dealershipID,
				PreviousState: string(rec.Status),
				NewState:      string(next),
				Timestamp:     now,
			},
			Role: &RoleEffect{DealershipID: dealershipID, Grant: false},
		}

		err = s.store.CommitTransition(ctx, nil, &updated, rec.Version, effects)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.notifier.SubscriptionChanged(dealershipID, rec.Status, next)
		return &updated, nil
	}
	return nil, fmt.Errorf("cancel for %s: retries exhausted: %w", dealershipID, ErrVersionConflict)
}

// resolveSubscription locates the record an event targets: by tenant
// reference first, then by checkout correlation id.
func (s *Service) resolveSubscription(ctx context.Context, ev *Event) (*SubscriptionRecord, error) {
	if ev.TenantRef != "" {
		rec, err := s.store.GetSubscription(ctx, ev.TenantRef)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrSubscriptionNotFound) {
			return nil, err
		}
	}
	if ev.CorrelationID != "" {
		return s.store.GetSubscriptionByCheckoutRef(ctx, ev.CorrelationID)
	}
	return nil, ErrSubscriptionNotFound
}

// rejectPayload handles an authenticated but malformed body. When the body
// still carries an event id, the rejection is recorded in the dedup log.
func (s *Service) rejectPayload(ctx context.Context, payload []byte, cause error) (*Result, error) {
	s.security.Log(ctx, audit.SecurityEvent{
		Type:     audit.TypeEnvelopeRejected,
		Resource: "subscription_webhook",
		Metadata: map[string]any{"cause": cause.Error()},
	})

	var probe struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(payload, &probe) != nil || probe.ID == "" {
		return nil, cause
	}

	pe := &ProcessedEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EventID:    probe.ID,
		ReceivedAt: time.Now().UTC(),
		Outcome:    OutcomeRejected,
	}
	if err := s.store.RecordEvent(ctx, pe); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeRejected, EventID: probe.ID}, nil
}

// rejectEvent records a well-formed event that targets nothing we know.
func (s *Service) rejectEvent(ctx context.Context, ev *Event, reason string) (*Result, error) {
	s.security.Log(ctx, audit.SecurityEvent{
		Type:     audit.TypeEnvelopeRejected,
		TenantID: ev.TenantRef,
		Resource: "subscription_webhook",
		Metadata: map[string]any{"event_id": ev.ID, "reason": reason},
	})

	pe := &ProcessedEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EventID:    ev.ID,
		EventType:  ev.Type,
		TenantRef:  ev.TenantRef,
		ReceivedAt: time.Now().UTC(),
		Outcome:    OutcomeRejected,
	}
	if err := s.store.RecordEvent(ctx, pe); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeRejected, EventID: ev.ID}, nil
}

// recordDuplicate appends a duplicate_ignored row for a redelivery.
func (s *Service) recordDuplicate(ctx context.Context, ev *Event, dealershipID string) (*Result, error) {
	pe := &ProcessedEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EventID:    ev.ID,
		EventType:  ev.Type,
		TenantRef:  dealershipID,
		ReceivedAt: time.Now().UTC(),
		Outcome:    OutcomeDuplicateIgnored,
	}
	if err := s.store.RecordEvent(ctx, pe); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeDuplicateIgnored, EventID: ev.ID}, nil
}

// ListEventDeliveries exposes the dedup log for one event id.
func (s *Service) ListEventDeliveries(ctx context.Context, eventID string) ([]*ProcessedEvent, error) {
	return s.store.ListEvents(ctx, eventID)
}
