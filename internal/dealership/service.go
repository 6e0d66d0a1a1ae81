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

package dealership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service provides dealership account management
type Service struct {
	repo Repository
}

// NewService creates a new dealership service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Profile holds the registration fields for a new dealership.
type Profile struct {
	Name    string
	Address string
	City    string
	State   string
	ZipCode string
}

// Register creates a new dealership account. The caller is responsible for
// creating the paired subscription record (status none) alongside it.
func (s *Service) Register(ctx context.Context, p Profile) (*Dealership, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("dealership name is required")
	}

	if _, err := s.repo.GetByName(ctx, p.Name); err == nil {
		return nil, ErrDealershipExists
	}

	now := time.Now().UTC()
	d := &Dealership{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		State:     p.State,
		ZipCode:   p.ZipCode,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create dealership: %w", err)
	}
	return d, nil
}

// Get retrieves a dealership by ID
func (s *Service) Get(ctx context.Context, id string) (*Dealership, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists dealerships with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Dealership, error) {
	return s.repo.List(ctx, limit, offset)
}

// Tombstone marks a dealership deleted without removing it. The billing
// record stays so late provider events resolve Stale instead of erroring.
func (s *Service) Tombstone(ctx context.Context, id string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	d.Status = StatusDeleted
	d.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, d)
}
