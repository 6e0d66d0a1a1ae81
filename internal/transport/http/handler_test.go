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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/auth"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"github.com/star4ce-apps/star4ce-backend/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type testEnv struct {
	router   *chi.Mux
	store    *memory.Store
	verifier *billing.SignatureVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	security := audit.NewSlogLogger()
	verifier := billing.NewSignatureVerifier(testWebhookSecret)

	billingService := billing.NewService(store.Billing(), verifier, security, nil, billing.Config{
		CheckoutURL: "https://pay.example.com/checkout",
	})
	accessService := access.NewService(store.AccessRequests(), billingService)
	directoryService := directory.NewService(store.Users(), store.Assignments())
	dealershipService := dealership.NewService(store.Dealerships())

	hasher := auth.NewPasswordHasher(8*1024, 1, 1, 16, 32)
	tokens := auth.NewTokenIssuer("test-secret", "star4ce", time.Hour)

	h := NewHandler(billingService, accessService, directoryService, dealershipService,
		store.Audit(), hasher, tokens, security)

	return &testEnv{
		router:   NewRouter(h, NewRateLimiter(1000, 1000)),
		store:    store,
		verifier: verifier,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates a dealership account and returns (dealershipID, token).
func (e *testEnv) register(t *testing.T, name, email string) (string, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"dealership_name":"`+name+`","email":"`+email+`","password":"secret123","full_name":"Owner"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		DealershipID string `json:"dealership_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"`+email+`","password":"secret123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return created.DealershipID, login.Token
}

// activate drives the dealership to Active through a signed webhook.
func (e *testEnv) activate(t *testing.T, dealershipID, eventID string, at int64) {
	t.Helper()
	payload := `{"id":"` + eventID + `","type":"checkout.session.completed","occurred_at":` +
		jsonInt(at) + `,"data":{"tenant_ref":"` + dealershipID + `"}}`

	req := httptest.NewRequest(http.MethodPost, "/subscription/webhook", strings.NewReader(payload))
	req.Header.Set("X-Billing-Signature", e.verifier.Sign([]byte(payload)))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	dealershipID, token := env.register(t, "Sunrise Motors", "owner@example.com")
	require.NotEmpty(t, dealershipID)
	require.NotEmpty(t, token)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/auth/register", "",
			`{"dealership_name":"Other","email":"owner@example.com","password":"secret123"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "",
			`{"email":"owner@example.com","password":"nope-nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/auth/me", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "owner@example.com")
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("subscription starts at none", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/subscription/", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"none"`)
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/auth/me",
		"/api/v1/subscription/",
		"/api/v1/access-requests/mine",
		"/api/v1/audit-logs",
	} {
		w := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	t.Run("garbage token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	dealershipID, token := env.register(t, "Sunrise Motors", "owner@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/subscription/checkout", token, `{"plan":"monthly"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session billing.CheckoutSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Contains(t, session.RedirectURL, session.CorrelationID)

	t.Run("second checkout conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/subscription/checkout", token, `{"plan":"monthly"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid plan", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/subscription/checkout", token, `{"plan":"weekly"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancel after activation", func(t *testing.T) {
		env.activate(t, dealershipID, "evt_act", 100)

		w := env.do(t, http.MethodPost, "/api/v1/subscription/cancel", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"canceled"`)
	})

	t.Run("cancel twice conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/subscription/cancel", token, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuditLogEndpoint(t *testing.T) {
	env := newTestEnv(t)
	dealershipID, token := env.register(t, "Sunrise Motors", "owner@example.com")
	env.activate(t, dealershipID, "evt_1", 100)

	w := env.do(t, http.MethodGet, "/api/v1/audit-logs", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page AuditLogPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, audit.ActorSystemWebhook, page.Entries[0].Actor)

	t.Run("bad since parameter", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/audit-logs?since=yesterday", token, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("actor filter", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/audit-logs?actor=nobody", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		var page AuditLogPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Zero(t, page.Total)
	})
}
