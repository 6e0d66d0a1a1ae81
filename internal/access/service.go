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

package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
)

// SubscriptionGate reports billing state; role grants are gated on an
// Active subscription for the target dealership.
type SubscriptionGate interface {
	GetSubscription(ctx context.Context, dealershipID string) (*billing.SubscriptionRecord, error)
}

// Service is the access approval engine. It owns AccessRequest rows and the
// Manager/Corporate role mutations their approval causes; Admin elevation
// is exclusive to billing activation and never flows through here.
type Service struct {
	repo Repository
	gate SubscriptionGate
}

// NewService creates a new approval engine.
func NewService(repo Repository, gate SubscriptionGate) *Service {
	return &Service{repo: repo, gate: gate}
}

// Submit creates a Pending request. A Pending request for the same
// (requester, dealership, kind) triple is a conflict.
func (s *Service) Submit(ctx context.Context, requesterID, dealershipID string, kind Kind) (*Request, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid request kind %q", kind)
	}
	if requesterID == "" || dealershipID == "" {
		return nil, fmt.Errorf("requester and target dealership are required")
	}

	req := &Request{
		ID:               uuid.Must(uuid.NewV7()).String(),
		RequesterUserID:  requesterID,
		TargetDealership: dealershipID,
		Kind:             kind,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Resolve decides a Pending request. Resolution is exactly-once under
// concurrent admin actions: the conditional update matches only Pending
// rows, and a zero-row match surfaces as ErrAlreadyResolved with no
// mutation and no audit entry.
func (s *Service) Resolve(ctx context.Context, requestID string, decision Status, actorID string) (*Request, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	effects := ResolutionEffects{
		Audit: &audit.Entry{
			ID:            uuid.Must(uuid.NewV7()).String(),
			Actor:         actorID,
			Action:        auditAction(decision),
			TargetEntity:  "access_request:" + requestID,
			PreviousState: string(StatusPending),
			NewState:      string(decision),
			Timestamp:     now,
		},
	}

	if decision == StatusApproved {
		sub, err := s.gate.GetSubscription(ctx, req.TargetDealership)
		if err != nil {
			return nil, fmt.Errorf("subscription check for %s: %w", req.TargetDealership, err)
		}
		if sub.Status != billing.StatusActive {
			return nil, fmt.Errorf("%w: status %s", ErrSubscriptionInactive, sub.Status)
		}
		effects.Grant = &Grant{
			UserID:       req.RequesterUserID,
			DealershipID: req.TargetDealership,
			Kind:         req.Kind,
		}
	}

	if err := s.repo.Resolve(ctx, requestID, decision, actorID, now, effects); err != nil {
		return nil, err
	}

	req.Status = decision
	req.ResolvedBy = actorID
	req.ResolvedAt = &now
	return req, nil
}

// Get retrieves a request by id.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPending lists Pending requests for admin review.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Request, error) {
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

// ListByRequester lists every request a user has submitted.
func (s *Service) ListByRequester(ctx context.Context, requesterID string) ([]*Request, error) {
	return s.repo.ListByRequester(ctx, requesterID)
}

// ListByStatus lists requests in a given status.
func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

func auditAction(decision Status) string {
	if decision == StatusApproved {
		return audit.ActionRequestApproved
	}
	return audit.ActionRequestRejected
}
