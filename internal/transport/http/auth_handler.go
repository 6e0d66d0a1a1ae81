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
	"errors"
	"log/slog"
	"net/http"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
	"github.com/star4ce-apps/star4ce-backend/internal/observability/logger"
)

// RegisterRequest creates a dealership account with its owner user.
type RegisterRequest struct {
	DealershipName string `json:"dealership_name" validate:"required" example:"Sunrise Motors"`
	Address        string `json:"address" example:"100 Main St"`
	City           string `json:"city" example:"Austin"`
	State          string `json:"state" example:"TX"`
	ZipCode        string `json:"zip_code" example:"78701"`
	Email          string `json:"email" validate:"required,email" example:"owner@example.com"`
	Password       string `json:"password" validate:"required,min=8" example:"secret123"`
	FullName       string `json:"full_name" example:"Sam Owner"`
}

// Register creates a dealership account: the dealership record, its
// subscription record (status none), and the owner user. The owner holds
// the admin role but has no admin access until the first activation event.
// @Summary Register a dealership account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dlr, err := h.dealershipService.Register(r.Context(), dealership.Profile{
		Name:    req.DealershipName,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
	})
	if err != nil {
		if errors.Is(err, dealership.ErrDealershipExists) {
			respondError(w, http.StatusConflict, "dealership already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create dealership")
		return
	}

	if _, err := h.billingService.CreateRecord(r.Context(), dlr.ID); err != nil {
		slog.ErrorContext(r.Context(), "subscription_record_create_failed",
			logger.DealershipID(dlr.ID),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to create subscription record")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.directoryService.CreateUser(r.Context(), req.Email, req.FullName, hash, directory.RoleAdmin, dlr.ID)
	if err != nil {
		if errors.Is(err, directory.ErrUserAlreadyExists) {
			respondError(w, http.StatusConflict, "user already exists")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid user data")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"dealership_id": dlr.ID,
		"user_id":       user.ID,
		"email":         user.Email,
	})
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"owner@example.com"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// Login authenticates a user and issues a session token.
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.directoryService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.security.Log(r.Context(), audit.SecurityEvent{
			Type:      audit.TypeLoginFailed,
			Resource:  req.Email,
			IPAddress: getClientIP(r),
			Metadata:  map[string]any{"reason": "unknown_user"},
		})
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ok, err := h.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.security.Log(r.Context(), audit.SecurityEvent{
			Type:      audit.TypeLoginFailed,
			ActorID:   user.ID,
			Resource:  req.Email,
			IPAddress: getClientIP(r),
			Metadata:  map[string]any{"reason": "bad_password"},
		})
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.security.Log(r.Context(), audit.SecurityEvent{
		Type:      audit.TypeLoginSuccess,
		ActorID:   user.ID,
		TenantID:  user.DealershipID,
		IPAddress: getClientIP(r),
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":            user.ID,
			"email":         user.Email,
			"role":          user.Role,
			"dealership_id": user.DealershipID,
			"admin_access":  user.AdminAccess,
		},
	})
}

// GetCurrentUser returns the authenticated user.
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} directory.User
// @Failure 404 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	user, err := h.directoryService.GetUser(r.Context(), claims.Subject)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ListVisibleDealerships returns the dealerships the caller may act on.
// @Summary List visible dealerships
// @Tags Directory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dealership.Dealership
// @Router /dealerships [get]
func (h *Handler) ListVisibleDealerships(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	ids, err := h.directoryService.VisibleDealerships(r.Context(), claims.Subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to resolve dealerships")
		return
	}

	out := make([]*dealership.Dealership, 0, len(ids))
	for _, id := range ids {
		dlr, err := h.dealershipService.Get(r.Context(), id)
		if err != nil {
			continue
		}
		out = append(out, dlr)
	}

	respondJSON(w, http.StatusOK, out)
}

// ListDealershipUsers returns the users of the caller's dealership.
// @Summary List dealership users
// @Tags Directory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} directory.User
// @Router /users [get]
func (h *Handler) ListDealershipUsers(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	users, err := h.directoryService.ListDealershipUsers(r.Context(), claims.DealershipID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}
