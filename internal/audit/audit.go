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

package audit

import (
	"context"
	"time"
)

// ActorSystemWebhook identifies transitions applied by the webhook
// reconciliation path rather than a human actor.
const ActorSystemWebhook = "system:webhook"

// Actions recorded in the audit log
const (
	ActionSubscriptionTransition = "subscription_transition"
	ActionAdminGranted           = "admin_granted"
	ActionAdminRevoked           = "admin_revoked"
	ActionRequestApproved        = "access_request_approved"
	ActionRequestRejected        = "access_request_rejected"
	ActionRoleGranted            = "role_granted"
	ActionDealershipRegistered   = "dealership_registered"
)

// Entry is one immutable row of the audit log. Entries are created in the
// same transaction as the mutation they describe and are never updated or
// deleted.
type Entry struct {
	ID            string    `json:"id"`
	Actor         string    `json:"actor"`
	Action        string    `json:"action"`
	TargetEntity  string    `json:"target_entity"`
	PreviousState string    `json:"previous_state,omitempty"`
	NewState      string    `json:"new_state,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Filter selects entries for the read API. Zero values match everything.
type Filter struct {
	Actor  string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Store is the read side of the audit log. Writes never go through this
// interface: they ride inside the transaction of the state change they
// document, so a failed audit write aborts that state change.
type Store interface {
	List(ctx context.Context, f Filter) ([]*Entry, error)
	Count(ctx context.Context, f Filter) (int64, error)
}

// Matches reports whether an entry passes the filter, ignoring pagination.
// Store implementations that filter in SQL do not use it; the in-memory
// store and tests do.
func (f Filter) Matches(e *Entry) bool {
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
