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

// Package memory is an in-process store used by tests and local
// development. One mutex guards all state, so every unit of work the
// postgres store runs in a transaction is atomic here too.
package memory

import (
	"sync"

	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

// Store holds all in-memory state. Facade accessors expose the per-domain
// repository interfaces over the same shared state.
type Store struct {
	mu sync.Mutex

	subscriptions map[string]*billing.SubscriptionRecord
	events        []*billing.ProcessedEvent
	requests      map[string]*access.Request
	users         map[string]*directory.User
	assignments   []*directory.CorporateAssignment
	dealerships   map[string]*dealership.Dealership
	auditLog      []*audit.Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subscriptions: make(map[string]*billing.SubscriptionRecord),
		requests:      make(map[string]*access.Request),
		users:         make(map[string]*directory.User),
		dealerships:   make(map[string]*dealership.Dealership),
	}
}

// Billing returns the subscription state machine store.
func (s *Store) Billing() billing.Store { return &billingStore{s} }

// AccessRequests returns the approval engine repository.
func (s *Store) AccessRequests() access.Repository { return &accessRepo{s} }

// Users returns the directory repository.
func (s *Store) Users() directory.Repository { return &userRepo{s} }

// Assignments returns the corporate assignment repository.
func (s *Store) Assignments() directory.AssignmentRepository { return &assignmentRepo{s} }

// Dealerships returns the dealership repository.
func (s *Store) Dealerships() dealership.Repository { return &dealershipRepo{s} }

// Audit returns the audit log read store.
func (s *Store) Audit() audit.Store { return &auditStore{s} }
