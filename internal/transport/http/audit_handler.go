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
	"net/http"
	"time"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

// AuditLogPage is one page of the audit trail.
type AuditLogPage struct {
	Entries []*audit.Entry `json:"entries"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// ListAuditLogs returns the audit trail, filtered and paginated.
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param actor query string false "Filter by actor"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset"
// @Success 200 {object} AuditLogPage
// @Failure 400 {object} map[string]string
// @Router /audit-logs [get]
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	f := audit.Filter{
		Actor:  r.URL.Query().Get("actor"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		f.Since = t
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "until must be RFC3339")
			return
		}
		f.Until = t
	}

	entries, err := h.auditStore.List(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	total, err := h.auditStore.Count(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count audit entries")
		return
	}

	respondJSON(w, http.StatusOK, AuditLogPage{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}
