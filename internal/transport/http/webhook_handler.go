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
	"io"
	"log/slog"
	"net/http"

	"github.com/star4ce-apps/star4ce-backend/internal/billing"
	"github.com/star4ce-apps/star4ce-backend/internal/observability/logger"
)

// maxWebhookBody bounds provider payloads. Real envelopes are a few KB.
const maxWebhookBody = 1 << 20

// SubscriptionWebhook ingests one billing provider delivery.
//
// Status codes follow the provider retry contract: 2xx acknowledges the
// delivery (applied, duplicate, or stale — all final), 400 tells the
// provider the payload itself is bad and retrying is pointless, and 5xx
// asks for redelivery after a transient failure.
//
// @Summary Billing provider webhook
// @Description Ingests a signed subscription lifecycle event
// @Tags Billing
// @Accept json
// @Produce json
// @Param X-Billing-Signature header string true "HMAC-SHA256 of the raw body"
// @Success 200 {object} billing.Result
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /subscription/webhook [post]
func (h *Handler) SubscriptionWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	signature := r.Header.Get("X-Billing-Signature")

	result, err := h.billingService.ProcessWebhook(r.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			respondError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		if errors.Is(err, billing.ErrMalformedEnvelope) {
			respondError(w, http.StatusBadRequest, "malformed event envelope")
			return
		}
		slog.ErrorContext(r.Context(), "webhook_processing_failed",
			logger.Component("transport"),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "event processing failed")
		return
	}

	status := http.StatusOK
	if result.Outcome == billing.OutcomeRejected {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}
