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
	"errors"
	"time"
)

// Domain errors
var (
	ErrRequestNotFound      = errors.New("access request not found")
	ErrDuplicatePending     = errors.New("pending request already exists")
	ErrAlreadyResolved      = errors.New("request already resolved")
	ErrSubscriptionInactive = errors.New("target dealership subscription is not active")
	ErrInvalidDecision      = errors.New("invalid decision")
)

// Kind is the type of access being requested.
type Kind string

const (
	// KindManagerJoin grants the Manager role scoped to the target
	// dealership. A Manager belongs to exactly one dealership.
	KindManagerJoin Kind = "manager_join"
	// KindCorporateAssign adds the target dealership to a Corporate
	// user's visible set.
	KindCorporateAssign Kind = "corporate_assign"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindManagerJoin || k == KindCorporateAssign
}

// Status is the lifecycle state of a request. A request terminates on its
// first resolution and is never reopened.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request is one pending or resolved access request. At most one Pending
// request may exist per (requester, target dealership, kind).
type Request struct {
	ID               string     `json:"id"`
	RequesterUserID  string     `json:"requester_user_id"`
	TargetDealership string     `json:"target_dealership_id"`
	Kind             Kind       `json:"kind"`
	Status           Status     `json:"status"`
	ResolvedBy       string     `json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
