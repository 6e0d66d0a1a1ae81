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

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/auth"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loginAs seeds a user directly and returns a token for them.
func (e *testEnv) loginAs(t *testing.T, id string, role directory.Role) string {
	t.Helper()
	user := &directory.User{
		ID:    id,
		Email: id + "@example.com",
		Role:  role,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))

	token, err := auth.NewTokenIssuer("test-secret", "star4ce", time.Hour).Issue(user)
	require.NoError(t, err)
	return token
}

func TestAccessRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	dealershipID, adminToken := env.register(t, "Sunrise Motors", "owner@example.com")
	env.activate(t, dealershipID, "evt_act", 100)

	managerToken := env.loginAs(t, "usr_mgr", directory.RoleManager)

	// Manager files a join request.
	w := env.do(t, http.MethodPost, "/api/v1/access-requests/", managerToken,
		`{"target_dealership_id":"`+dealershipID+`","kind":"manager_join"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created access.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, access.StatusPending, created.Status)

	t.Run("duplicate pending conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/access-requests/", managerToken,
			`{"target_dealership_id":"`+dealershipID+`","kind":"manager_join"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("manager cannot list the queue", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/access-requests/", managerToken, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("manager sees own requests", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/access-requests/mine", managerToken, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.ID)
	})

	t.Run("admin lists pending", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/access-requests/", adminToken, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.ID)
	})

	t.Run("approve", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/access-requests/"+created.ID+"/decide", adminToken,
			`{"decision":"approved"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resolved access.Request
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
		assert.Equal(t, access.StatusApproved, resolved.Status)

		// The approval attached the manager to the dealership.
		user, err := env.store.Users().GetByID(context.Background(), "usr_mgr")
		require.NoError(t, err)
		assert.Equal(t, dealershipID, user.DealershipID)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/access-requests/"+created.ID+"/decide", adminToken,
			`{"decision":"rejected"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown request 404", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/access-requests/nope/decide", adminToken,
			`{"decision":"approved"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid decision 400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/access-requests/"+created.ID+"/decide", adminToken,
			`{"decision":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccessRequestApprovalGatedOnSubscription(t *testing.T) {
	env := newTestEnv(t)
	dealershipID, adminToken := env.register(t, "Sunrise Motors", "owner@example.com")
	// No activation: the subscription is still none.

	managerToken := env.loginAs(t, "usr_mgr", directory.RoleManager)

	w := env.do(t, http.MethodPost, "/api/v1/access-requests/", managerToken,
		`{"target_dealership_id":"`+dealershipID+`","kind":"manager_join"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created access.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPost, "/api/v1/access-requests/"+created.ID+"/decide", adminToken,
		`{"decision":"approved"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Rejection is always allowed.
	w = env.do(t, http.MethodPost, "/api/v1/access-requests/"+created.ID+"/decide", adminToken,
		`{"decision":"rejected"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
