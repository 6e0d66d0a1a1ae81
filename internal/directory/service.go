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

package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service provides directory lookups and user provisioning. Role mutations
// caused by billing activation or request approval do NOT go through this
// service; they are written by the owning engine inside its own
// transaction.
type Service struct {
	repo        Repository
	assignments AssignmentRepository
}

// NewService creates a new directory service
func NewService(repo Repository, assignments AssignmentRepository) *Service {
	return &Service{repo: repo, assignments: assignments}
}

// CreateUser provisions a user with the given role.
func (s *Service) CreateUser(ctx context.Context, email, fullName, passwordHash string, role Role, dealershipID string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		DealershipID: dealershipID,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListDealershipUsers lists users associated with a dealership.
func (s *Service) ListDealershipUsers(ctx context.Context, dealershipID string) ([]*User, error) {
	return s.repo.ListByDealership(ctx, dealershipID)
}

// VisibleDealerships returns the dealerships a user may act on: the home
// dealership for Admin/Manager, the assigned set for Corporate.
func (s *Service) VisibleDealerships(ctx context.Context, userID string) ([]string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case RoleAdmin, RoleManager:
		if user.DealershipID == "" {
			return nil, nil
		}
		return []string{user.DealershipID}, nil
	case RoleCorporate:
		assigned, err := s.assignments.ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(assigned))
		for _, a := range assigned {
			ids = append(ids, a.DealershipID)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidRole, user.Role)
}
