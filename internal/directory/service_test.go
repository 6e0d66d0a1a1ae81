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

package directory_test

import (
	"context"
	"testing"

	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"github.com/star4ce-apps/star4ce-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*directory.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return directory.NewService(store.Users(), store.Assignments()), store
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, err := svc.CreateUser(ctx, "Owner@Example.com", "Sam Owner", "hash", directory.RoleAdmin, "dlr_1")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email, "email is normalized")
	assert.False(t, user.AdminAccess, "admin access is earned by activation, not registration")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "owner@example.com", "", "hash", directory.RoleAdmin, "dlr_1")
		assert.ErrorIs(t, err, directory.ErrUserAlreadyExists)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "not-an-email", "", "hash", directory.RoleAdmin, "dlr_1")
		assert.Error(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "x@example.com", "", "hash", directory.Role("owner"), "dlr_1")
		assert.ErrorIs(t, err, directory.ErrInvalidRole)
	})
}

func TestVisibleDealerships(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	admin, err := svc.CreateUser(ctx, "a@example.com", "", "hash", directory.RoleAdmin, "dlr_1")
	require.NoError(t, err)
	corp, err := svc.CreateUser(ctx, "c@example.com", "", "hash", directory.RoleCorporate, "")
	require.NoError(t, err)

	t.Run("admin sees home dealership", func(t *testing.T) {
		ids, err := svc.VisibleDealerships(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"dlr_1"}, ids)
	})

	t.Run("corporate starts empty", func(t *testing.T) {
		ids, err := svc.VisibleDealerships(ctx, corp.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("corporate sees assigned set", func(t *testing.T) {
		// Assignments arrive through approved corporate_assign requests.
		accessSvc := access.NewService(store.AccessRequests(), activeGate{})
		for _, dlr := range []string{"dlr_1", "dlr_2"} {
			req, err := accessSvc.Submit(ctx, corp.ID, dlr, access.KindCorporateAssign)
			require.NoError(t, err)
			_, err = accessSvc.Resolve(ctx, req.ID, access.StatusApproved, admin.ID)
			require.NoError(t, err)
		}

		ids, err := svc.VisibleDealerships(ctx, corp.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"dlr_1", "dlr_2"}, ids)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.VisibleDealerships(ctx, "missing")
		assert.ErrorIs(t, err, directory.ErrUserNotFound)
	})
}

type activeGate struct{}

func (activeGate) GetSubscription(ctx context.Context, dealershipID string) (*billing.SubscriptionRecord, error) {
	return &billing.SubscriptionRecord{DealershipID: dealershipID, Status: billing.StatusActive}, nil
}

func TestListDealershipUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(ctx, "a@example.com", "", "hash", directory.RoleAdmin, "dlr_1")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "m@example.com", "", "hash", directory.RoleManager, "dlr_1")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "other@example.com", "", "hash", directory.RoleAdmin, "dlr_2")
	require.NoError(t, err)

	users, err := svc.ListDealershipUsers(ctx, "dlr_1")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
