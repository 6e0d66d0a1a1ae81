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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/star4ce-apps/star4ce-backend/internal/billing"
)

// BillingStore implements billing.Store over PostgreSQL. CommitTransition
// is one transaction: dedup insert, version-guarded update, role effect,
// audit write.
type BillingStore struct {
	db *DB
}

// NewBillingStore creates a new billing store
func NewBillingStore(db *DB) *BillingStore {
	return &BillingStore{db: db}
}

const subscriptionColumns = `dealership_id, status, plan, period_anchor,
	provider_customer_id, provider_subscription_id, checkout_ref,
	initiated_by, last_event_timestamp, activated_at, version,
	created_at, updated_at`

// CreateSubscription inserts the record paired with a new dealership.
func (s *BillingStore) CreateSubscription(ctx context.Context, rec *billing.SubscriptionRecord) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, rec.DealershipID, rec.Status, rec.Plan, rec.PeriodAnchor,
		rec.ProviderCustomer, rec.ProviderSubRef, rec.CheckoutRef,
		rec.InitiatedBy, rec.LastEventTimestamp, rec.ActivatedAt, rec.Version,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves the record for a dealership.
func (s *BillingStore) GetSubscription(ctx context.Context, dealershipID string) (*billing.SubscriptionRecord, error) {
	row := s.db.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE dealership_id = $1
	`, dealershipID)
	return scanSubscription(row)
}

// GetSubscriptionByCheckoutRef resolves a checkout correlation id.
func (s *BillingStore) GetSubscriptionByCheckoutRef(ctx context.Context, ref string) (*billing.SubscriptionRecord, error) {
	if ref == "" {
		return nil, billing.ErrSubscriptionNotFound
	}
	row := s.db.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE checkout_ref = $1
	`, ref)
	return scanSubscription(row)
}

// CommitTransition implements the single atomic unit of the state machine.
func (s *BillingStore) CommitTransition(ctx context.Context, pe *billing.ProcessedEvent, rec *billing.SubscriptionRecord, expectedVersion int64, effects billing.TransitionEffects) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	if pe != nil {
		if err := insertProcessedEvent(ctx, tx, pe); err != nil {
			return err
		}
	}

	if rec != nil {
		if effects.Audit == nil {
			return fmt.Errorf("state change without audit entry")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE subscriptions SET
				status = $1, plan = $2, period_anchor = $3,
				provider_customer_id = $4, provider_subscription_id = $5,
				checkout_ref = $6, initiated_by = $7,
				last_event_timestamp = $8, activated_at = $9,
				version = version + 1, updated_at = $10
			WHERE dealership_id = $11 AND version = $12
		`, rec.Status, rec.Plan, rec.PeriodAnchor,
			rec.ProviderCustomer, rec.ProviderSubRef,
			rec.CheckoutRef, rec.InitiatedBy,
			rec.LastEventTimestamp, rec.ActivatedAt,
			rec.UpdatedAt, rec.DealershipID, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return billing.ErrVersionConflict
		}

		if effects.Role != nil {
			if err := applyRoleEffect(ctx, tx, effects.Role); err != nil {
				return err
			}
		}

		// Audit failure aborts the whole transition: a state change must
		// never persist without its audit record.
		if err := insertAuditEntry(ctx, tx, effects.Audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err, "ux_processed_events_applied") {
			return billing.ErrEventAlreadyProcessed
		}
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// RecordEvent appends a dedup-log row outside a transition.
func (s *BillingStore) RecordEvent(ctx context.Context, pe *billing.ProcessedEvent) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO processed_events (id, event_id, event_type, tenant_ref, received_at, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pe.ID, pe.EventID, pe.EventType, pe.TenantRef, pe.ReceivedAt, pe.Outcome)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// ListEvents returns every recorded delivery of one event id.
func (s *BillingStore) ListEvents(ctx context.Context, eventID string) ([]*billing.ProcessedEvent, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT id, event_id, event_type, tenant_ref, received_at, outcome
		FROM processed_events WHERE event_id = $1
		ORDER BY received_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*billing.ProcessedEvent
	for rows.Next() {
		var pe billing.ProcessedEvent
		if err := rows.Scan(&pe.ID, &pe.EventID, &pe.EventType, &pe.TenantRef, &pe.ReceivedAt, &pe.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, &pe)
	}
	return out, rows.Err()
}

func insertProcessedEvent(ctx context.Context, tx pgx.Tx, pe *billing.ProcessedEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO processed_events (id, event_id, event_type, tenant_ref, received_at, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pe.ID, pe.EventID, pe.EventType, pe.TenantRef, pe.ReceivedAt, pe.Outcome)
	if err != nil {
		if isUniqueViolation(err, "ux_processed_events_applied") {
			return billing.ErrEventAlreadyProcessed
		}
		return fmt.Errorf("failed to insert processed event: %w", err)
	}
	return nil
}

func applyRoleEffect(ctx context.Context, tx pgx.Tx, effect *billing.RoleEffect) error {
	if effect.Grant {
		_, err := tx.Exec(ctx, `
			UPDATE users SET role = 'admin', dealership_id = $1,
				admin_access = TRUE, updated_at = NOW()
			WHERE id = $2
		`, effect.DealershipID, effect.UserID)
		if err != nil {
			return fmt.Errorf("failed to grant admin: %w", err)
		}
		return nil
	}

	_, err := tx.Exec(ctx, `
		UPDATE users SET admin_access = FALSE, updated_at = NOW()
		WHERE dealership_id = $1 AND role = 'admin'
	`, effect.DealershipID)
	if err != nil {
		return fmt.Errorf("failed to revoke admin access: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*billing.SubscriptionRecord, error) {
	var rec billing.SubscriptionRecord
	err := row.Scan(&rec.DealershipID, &rec.Status, &rec.Plan, &rec.PeriodAnchor,
		&rec.ProviderCustomer, &rec.ProviderSubRef, &rec.CheckoutRef,
		&rec.InitiatedBy, &rec.LastEventTimestamp, &rec.ActivatedAt, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, billing.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &rec, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
