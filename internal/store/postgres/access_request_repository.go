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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/access"
)

// AccessRequestRepository implements access.Repository
type AccessRequestRepository struct {
	db *DB
}

// NewAccessRequestRepository creates a new access request repository
func NewAccessRequestRepository(db *DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

// Create inserts a Pending request. The partial unique index on
// (requester, dealership, kind) WHERE status='pending' turns a duplicate
// submission into ErrDuplicatePending.
func (r *AccessRequestRepository) Create(ctx context.Context, req *access.Request) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO access_requests (id, requester_user_id, target_dealership_id, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, req.ID, req.RequesterUserID, req.TargetDealership, req.Kind, req.Status, req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "ux_access_requests_pending") {
			return access.ErrDuplicatePending
		}
		return fmt.Errorf("failed to create access request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by id.
func (r *AccessRequestRepository) GetByID(ctx context.Context, id string) (*access.Request, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, requester_user_id, target_dealership_id, kind, status, resolved_by, resolved_at, created_at
		FROM access_requests WHERE id = $1
	`, id)
	return scanAccessRequest(row)
}

// ListByStatus lists requests in a status, oldest first.
func (r *AccessRequestRepository) ListByStatus(ctx context.Context, status access.Status, limit, offset int) ([]*access.Request, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, requester_user_id, target_dealership_id, kind, status, resolved_by, resolved_at, created_at
		FROM access_requests WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	defer rows.Close()
	return scanAccessRequests(rows)
}

// ListByRequester lists all requests ever submitted by a user.
func (r *AccessRequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*access.Request, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, requester_user_id, target_dealership_id, kind, status, resolved_by, resolved_at, created_at
		FROM access_requests WHERE requester_user_id = $1
		ORDER BY created_at
	`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	defer rows.Close()
	return scanAccessRequests(rows)
}

// Resolve performs the compare-and-swap resolution and its effects in one
// transaction.
func (r *AccessRequestRepository) Resolve(ctx context.Context, id string, decision access.Status, resolvedBy string, resolvedAt time.Time, effects access.ResolutionEffects) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin resolution: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE access_requests SET status = $1, resolved_by = $2, resolved_at = $3
		WHERE id = $4 AND status = 'pending'
	`, decision, resolvedBy, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve access request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race or unknown id: distinguish for the caller.
		var exists bool
		if err := r.db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM access_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check access request: %w", err)
		}
		if !exists {
			return access.ErrRequestNotFound
		}
		return access.ErrAlreadyResolved
	}

	if effects.Grant != nil {
		if err := applyGrant(ctx, tx, effects.Grant, resolvedBy, resolvedAt); err != nil {
			return err
		}
	}
	if effects.Audit != nil {
		if err := insertAuditEntry(ctx, tx, effects.Audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}
	return nil
}

func applyGrant(ctx context.Context, tx pgx.Tx, grant *access.Grant, grantedBy string, at time.Time) error {
	switch grant.Kind {
	case access.KindManagerJoin:
		_, err := tx.Exec(ctx, `
			UPDATE users SET role = 'manager', dealership_id = $1, updated_at = $2
			WHERE id = $3
		`, grant.DealershipID, at, grant.UserID)
		if err != nil {
			return fmt.Errorf("failed to grant manager role: %w", err)
		}
	case access.KindCorporateAssign:
		_, err := tx.Exec(ctx, `
			INSERT INTO corporate_assignments (user_id, dealership_id, granted_at, granted_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, dealership_id) DO NOTHING
		`, grant.UserID, grant.DealershipID, at, grantedBy)
		if err != nil {
			return fmt.Errorf("failed to grant corporate assignment: %w", err)
		}
	}
	return nil
}

func scanAccessRequest(row pgx.Row) (*access.Request, error) {
	var req access.Request
	var resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&req.ID, &req.RequesterUserID, &req.TargetDealership, &req.Kind, &req.Status, &resolvedBy, &resolvedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, access.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan access request: %w", err)
	}
	if resolvedBy.Valid {
		req.ResolvedBy = resolvedBy.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		req.ResolvedAt = &t
	}
	return &req, nil
}

func scanAccessRequests(rows pgx.Rows) ([]*access.Request, error) {
	var out []*access.Request
	for rows.Next() {
		var req access.Request
		var resolvedBy sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.RequesterUserID, &req.TargetDealership, &req.Kind, &req.Status, &resolvedBy, &resolvedAt, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		if resolvedBy.Valid {
			req.ResolvedBy = resolvedBy.String
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			req.ResolvedAt = &t
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}
