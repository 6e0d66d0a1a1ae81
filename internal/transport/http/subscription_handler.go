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

	"github.com/star4ce-apps/star4ce-backend/internal/billing"
)

// GetSubscription returns the caller's dealership subscription record.
// @Summary Get subscription
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} billing.SubscriptionRecord
// @Failure 404 {object} map[string]string
// @Router /subscription [get]
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	rec, err := h.billingService.GetSubscription(r.Context(), claims.DealershipID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// CheckoutRequest selects the plan to purchase.
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=monthly annual" example:"monthly"`
}

// StartCheckout begins the payment flow for the caller's dealership.
// @Summary Start checkout
// @Description Moves the subscription to pending_payment and returns the provider checkout URL
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Plan selection"
// @Success 200 {object} billing.CheckoutSession
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscription/checkout [post]
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req CheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.billingService.StartCheckout(r.Context(), claims.DealershipID, claims.Subject, billing.Plan(req.Plan))
	switch {
	case errors.Is(err, billing.ErrCheckoutNotAllowed):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// CancelSubscription cancels the caller's dealership subscription.
// @Summary Cancel subscription
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} billing.SubscriptionRecord
// @Failure 409 {object} map[string]string
// @Router /subscription/cancel [post]
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	rec, err := h.billingService.Cancel(r.Context(), claims.DealershipID, claims.Subject)
	switch {
	case errors.Is(err, billing.ErrCancelNotAllowed):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to cancel subscription")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}
