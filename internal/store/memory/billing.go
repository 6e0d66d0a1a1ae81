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

package memory

import (
	"context"
	"fmt"

	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

type billingStore struct {
	s *Store
}

func (b *billingStore) CreateSubscription(ctx context.Context, rec *billing.SubscriptionRecord) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if _, exists := b.s.subscriptions[rec.DealershipID]; exists {
		return fmt.Errorf("subscription for %s already exists", rec.DealershipID)
	}
	cp := *rec
	b.s.subscriptions[rec.DealershipID] = &cp
	return nil
}

func (b *billingStore) GetSubscription(ctx context.Context, dealershipID string) (*billing.SubscriptionRecord, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	rec, ok := b.s.subscriptions[dealershipID]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (b *billingStore) GetSubscriptionByCheckoutRef(ctx context.Context, ref string) (*billing.SubscriptionRecord, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if ref == "" {
		return nil, billing.ErrSubscriptionNotFound
	}
	for _, rec := range b.s.subscriptions {
		if rec.CheckoutRef == ref {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, billing.ErrSubscriptionNotFound
}

func (b *billingStore) CommitTransition(ctx context.Context, pe *billing.ProcessedEvent, rec *billing.SubscriptionRecord, expectedVersion int64, effects billing.TransitionEffects) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	// Validate everything before mutating anything; a single lock stands in
	// for the transaction boundary.
	if pe != nil && pe.Outcome == billing.OutcomeApplied {
		for _, e := range b.s.events {
			if e.EventID == pe.EventID && e.Outcome == billing.OutcomeApplied {
				return billing.ErrEventAlreadyProcessed
			}
		}
	}

	var current *billing.SubscriptionRecord
	if rec != nil {
		var ok bool
		current, ok = b.s.subscriptions[rec.DealershipID]
		if !ok {
			return billing.ErrSubscriptionNotFound
		}
		if current.Version != expectedVersion {
			return billing.ErrVersionConflict
		}
		if effects.Audit == nil {
			return fmt.Errorf("state change without audit entry")
		}
	}

	if pe != nil {
		cp := *pe
		b.s.events = append(b.s.events, &cp)
	}

	if rec != nil {
		cp := *rec
		cp.Version = expectedVersion + 1
		b.s.subscriptions[rec.DealershipID] = &cp

		if effects.Role != nil {
			b.s.applyRoleEffect(effects.Role)
		}
		entry := *effects.Audit
		b.s.auditLog = append(b.s.auditLog, &entry)
	}

	return nil
}

func (b *billingStore) RecordEvent(ctx context.Context, pe *billing.ProcessedEvent) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	cp := *pe
	b.s.events = append(b.s.events, &cp)
	return nil
}

func (b *billingStore) ListEvents(ctx context.Context, eventID string) ([]*billing.ProcessedEvent, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var out []*billing.ProcessedEvent
	for _, e := range b.s.events {
		if e.EventID == eventID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// applyRoleEffect mutates directory state inside the transition's critical
// section. Caller holds the lock.
func (s *Store) applyRoleEffect(effect *billing.RoleEffect) {
	if effect.Grant {
		if user, ok := s.users[effect.UserID]; ok {
			user.Role = directory.RoleAdmin
			user.DealershipID = effect.DealershipID
			user.AdminAccess = true
		}
		return
	}
	for _, user := range s.users {
		if user.DealershipID == effect.DealershipID && user.Role == directory.RoleAdmin {
			user.AdminAccess = false
		}
	}
}
