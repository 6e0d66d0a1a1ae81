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

// @title Star4ce API
// @version 1.0.0
// @description Dealership SaaS backend
// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/auth"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var validate = validator.New()

// Handler holds HTTP handlers and dependencies
type Handler struct {
	billingService    *billing.Service
	accessService     *access.Service
	directoryService  *directory.Service
	dealershipService *dealership.Service
	auditStore        audit.Store
	hasher            *auth.PasswordHasher
	tokens            *auth.TokenIssuer
	security          audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	billingService *billing.Service,
	accessService *access.Service,
	directoryService *directory.Service,
	dealershipService *dealership.Service,
	auditStore audit.Store,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	security audit.Logger,
) *Handler {
	return &Handler{
		billingService:    billingService,
		accessService:     accessService,
		directoryService:  directoryService,
		dealershipService: dealershipService,
		auditStore:        auditStore,
		hasher:            hasher,
		tokens:            tokens,
		security:          security,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Provider webhook. Authenticated by HMAC signature, not by session,
	// so it stays outside the API group.
	r.Post("/subscription/webhook", h.SubscriptionWebhook)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)

			// Subscription lifecycle (dealership admin only)
			r.Route("/subscription", func(r chi.Router) {
				r.Use(h.RequireRole(directory.RoleAdmin))
				r.Get("/", h.GetSubscription)
				r.Post("/checkout", h.StartCheckout)
				r.Post("/cancel", h.CancelSubscription)
			})

			// Access requests
			r.Route("/access-requests", func(r chi.Router) {
				r.Post("/", h.SubmitAccessRequest)
				r.Get("/mine", h.ListMyAccessRequests)

				r.Group(func(r chi.Router) {
					r.Use(h.RequireRole(directory.RoleAdmin))
					r.Get("/", h.ListAccessRequests)
					r.Get("/{requestID}", h.GetAccessRequest)
					r.Post("/{requestID}/decide", h.DecideAccessRequest)
				})
			})

			// Audit trail (dealership admin only)
			r.With(h.RequireRole(directory.RoleAdmin)).Get("/audit-logs", h.ListAuditLogs)

			// Directory
			r.Get("/dealerships", h.ListVisibleDealerships)
			r.With(h.RequireRole(directory.RoleAdmin)).Get("/users", h.ListDealershipUsers)
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "star4ce",
	})
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
