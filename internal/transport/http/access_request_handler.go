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
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/access"
)

// AccessRequestPayload creates a new access request.
type AccessRequestPayload struct {
	TargetDealershipID string `json:"target_dealership_id" validate:"required,uuid"`
	Kind               string `json:"kind" validate:"required,oneof=manager_join corporate_assign"`
}

// SubmitAccessRequest files a pending access request for the caller.
// @Summary Submit access request
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccessRequestPayload true "Request data"
// @Success 201 {object} access.Request
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /access-requests [post]
func (h *Handler) SubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req AccessRequestPayload
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.accessService.Submit(r.Context(), claims.Subject, req.TargetDealershipID, access.Kind(req.Kind))
	if err != nil {
		if errors.Is(err, access.ErrDuplicatePending) {
			respondError(w, http.StatusConflict, "a pending request already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// ListAccessRequests lists requests by status, pending by default.
// @Summary List access requests
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Param status query string false "Request status" default(pending)
// @Success 200 {array} access.Request
// @Router /access-requests [get]
func (h *Handler) ListAccessRequests(w http.ResponseWriter, r *http.Request) {
	status := access.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = access.StatusPending
	}
	limit, offset := paginationParams(r)

	requests, err := h.accessService.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// ListMyAccessRequests lists the caller's own requests.
// @Summary List own access requests
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {array} access.Request
// @Router /access-requests/mine [get]
func (h *Handler) ListMyAccessRequests(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	requests, err := h.accessService.ListByRequester(r.Context(), claims.Subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// GetAccessRequest retrieves one request by id.
// @Summary Get access request
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID"
// @Success 200 {object} access.Request
// @Failure 404 {object} map[string]string
// @Router /access-requests/{requestID} [get]
func (h *Handler) GetAccessRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.accessService.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		if errors.Is(err, access.ErrRequestNotFound) {
			respondError(w, http.StatusNotFound, "request not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load request")
		return
	}

	respondJSON(w, http.StatusOK, req)
}

// DecisionPayload carries the admin's decision.
type DecisionPayload struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// DecideAccessRequest approves or rejects a pending request. Concurrent
// decisions on the same request resolve exactly once; the loser gets 409.
// @Summary Decide access request
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID"
// @Param request body DecisionPayload true "Decision"
// @Success 200 {object} access.Request
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /access-requests/{requestID}/decide [post]
func (h *Handler) DecideAccessRequest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req DecisionPayload
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resolved, err := h.accessService.Resolve(r.Context(), chi.URLParam(r, "requestID"), access.Status(req.Decision), claims.Subject)
	switch {
	case errors.Is(err, access.ErrRequestNotFound):
		respondError(w, http.StatusNotFound, "request not found")
		return
	case errors.Is(err, access.ErrAlreadyResolved):
		respondError(w, http.StatusConflict, "request already resolved")
		return
	case errors.Is(err, access.ErrSubscriptionInactive):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, access.ErrInvalidDecision):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to resolve request")
		return
	}

	respondJSON(w, http.StatusOK, resolved)
}

// paginationParams reads limit/offset query parameters with sane bounds.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
