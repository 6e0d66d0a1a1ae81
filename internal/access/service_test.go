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

package access_test

import (
	"context"
	"sync"
	"testing"

	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"github.com/star4ce-apps/star4ce-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGate reports a fixed subscription status for every dealership.
type stubGate struct {
	status billing.Status
}

func (g *stubGate) GetSubscription(ctx context.Context, dealershipID string) (*billing.SubscriptionRecord, error) {
	return &billing.SubscriptionRecord{DealershipID: dealershipID, Status: g.status}, nil
}

func newTestService(t *testing.T, status billing.Status) (*access.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return access.NewService(store.AccessRequests(), &stubGate{status: status}), store
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, billing.StatusActive)

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)
	assert.Equal(t, access.StatusPending, req.Status)
	assert.NotEmpty(t, req.ID)

	t.Run("duplicate pending conflicts", func(t *testing.T) {
		_, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
		assert.ErrorIs(t, err, access.ErrDuplicatePending)
	})

	t.Run("different kind is allowed", func(t *testing.T) {
		_, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindCorporateAssign)
		assert.NoError(t, err)
	})

	t.Run("different dealership is allowed", func(t *testing.T) {
		_, err := svc.Submit(ctx, "usr_1", "dlr_2", access.KindManagerJoin)
		assert.NoError(t, err)
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := svc.Submit(ctx, "usr_1", "dlr_1", access.Kind("franchise"))
		assert.Error(t, err)
	})
}

func TestResolveApproveGrantsManagerRole(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, billing.StatusActive)

	require.NoError(t, store.Users().Create(ctx, &directory.User{
		ID:    "usr_1",
		Email: "m@example.com",
		Role:  directory.RoleManager,
	}))

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, req.ID, access.StatusApproved, "admin_1")
	require.NoError(t, err)
	assert.Equal(t, access.StatusApproved, resolved.Status)
	assert.Equal(t, "admin_1", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	user, err := store.Users().GetByID(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "dlr_1", user.DealershipID)
	assert.Equal(t, directory.RoleManager, user.Role)

	// The approval and its audit entry land together.
	entries, err := store.Audit().List(ctx, audit.Filter{Actor: "admin_1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "access_request:"+req.ID, entries[0].TargetEntity)
	assert.Equal(t, string(access.StatusApproved), entries[0].NewState)
}

func TestResolveApproveGrantsCorporateVisibility(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, billing.StatusActive)

	require.NoError(t, store.Users().Create(ctx, &directory.User{
		ID:    "usr_c",
		Email: "c@example.com",
		Role:  directory.RoleCorporate,
	}))

	req, err := svc.Submit(ctx, "usr_c", "dlr_1", access.KindCorporateAssign)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, req.ID, access.StatusApproved, "admin_1")
	require.NoError(t, err)

	assigned, err := store.Assignments().ListForUser(ctx, "usr_c")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "dlr_1", assigned[0].DealershipID)
	assert.Equal(t, "admin_1", assigned[0].GrantedBy)
}

func TestResolveApproveRequiresActiveSubscription(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, billing.StatusPastDue)

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, access.StatusApproved, "admin_1")
	assert.ErrorIs(t, err, access.ErrSubscriptionInactive)

	// The request stays pending and nothing was audited.
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, access.StatusPending, got.Status)

	n, err := store.Audit().Count(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResolveRejectWithoutGate(t *testing.T) {
	// Rejection never touches the subscription gate or directory state.
	ctx := context.Background()
	svc, store := newTestService(t, billing.StatusNone)

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, req.ID, access.StatusRejected, "admin_1")
	require.NoError(t, err)
	assert.Equal(t, access.StatusRejected, resolved.Status)

	n, err := store.Audit().Count(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRejectedRequestCanBeResubmitted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, billing.StatusActive)

	first, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, first.ID, access.StatusRejected, "admin_1")
	require.NoError(t, err)

	// The partial-uniqueness rule covers Pending rows only, so a fresh
	// request after rejection goes through.
	second, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, access.StatusPending, second.Status)
}

func TestResolveExactlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, billing.StatusActive)

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, access.StatusApproved, "admin_1")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, req.ID, access.StatusRejected, "admin_2")
	assert.ErrorIs(t, err, access.ErrAlreadyResolved)

	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, access.StatusApproved, got.Status)
	assert.Equal(t, "admin_1", got.ResolvedBy)
}

func TestResolveConcurrentDecisions(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, billing.StatusActive)

	req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
	require.NoError(t, err)

	decisions := []access.Status{access.StatusApproved, access.StatusRejected}
	errs := make([]error, len(decisions))

	var wg sync.WaitGroup
	for i, d := range decisions {
		wg.Add(1)
		go func(i int, d access.Status) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(ctx, req.ID, d, "admin")
		}(i, d)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, access.ErrAlreadyResolved)
		}
	}
	assert.Equal(t, 1, succeeded)

	// One resolution, one audit entry.
	n, err := store.Audit().Count(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestResolveValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, billing.StatusActive)

	t.Run("unknown request", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "missing", access.StatusApproved, "admin_1")
		assert.ErrorIs(t, err, access.ErrRequestNotFound)
	})

	t.Run("invalid decision", func(t *testing.T) {
		req, err := svc.Submit(ctx, "usr_1", "dlr_1", access.KindManagerJoin)
		require.NoError(t, err)
		_, err = svc.Resolve(ctx, req.ID, access.StatusPending, "admin_1")
		assert.ErrorIs(t, err, access.ErrInvalidDecision)
	})
}
