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

package dealership_test

import (
	"context"
	"testing"

	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
	"github.com/star4ce-apps/star4ce-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := dealership.NewService(memory.New().Dealerships())

	d, err := svc.Register(ctx, dealership.Profile{
		Name:    "Sunrise Motors",
		Address: "100 Main St",
		City:    "Austin",
		State:   "TX",
		ZipCode: "78701",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, dealership.StatusActive, d.Status)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.Register(ctx, dealership.Profile{Name: "Sunrise Motors"})
		assert.ErrorIs(t, err, dealership.ErrDealershipExists)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := svc.Register(ctx, dealership.Profile{})
		assert.Error(t, err)
	})
}

func TestTombstone(t *testing.T) {
	ctx := context.Background()
	svc := dealership.NewService(memory.New().Dealerships())

	d, err := svc.Register(ctx, dealership.Profile{Name: "Sunrise Motors"})
	require.NoError(t, err)

	require.NoError(t, svc.Tombstone(ctx, d.ID))

	// Tombstoned rows are retained and readable.
	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dealership.StatusDeleted, got.Status)

	t.Run("unknown dealership", func(t *testing.T) {
		err := svc.Tombstone(ctx, "missing")
		assert.ErrorIs(t, err, dealership.ErrDealershipNotFound)
	})
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	svc := dealership.NewService(memory.New().Dealerships())

	for _, name := range []string{"A Motors", "B Motors", "C Motors"} {
		_, err := svc.Register(ctx, dealership.Profile{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
