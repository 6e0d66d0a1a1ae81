package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

// AuditRepository implements the read side of audit.Store. Writes happen
// via insertAuditEntry inside other repositories' transactions.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// List returns entries matching the filter, oldest first.
func (r *AuditRepository) List(ctx context.Context, f audit.Filter) ([]*audit.Entry, error) {
	where, args := auditFilterClause(f)

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, actor, action, target_entity, previous_state, new_state, occurred_at
		FROM audit_log %s
		ORDER BY occurred_at
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.TargetEntity, &e.PreviousState, &e.NewState, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Count returns the number of entries matching the filter.
func (r *AuditRepository) Count(ctx context.Context, f audit.Filter) (int64, error) {
	where, args := auditFilterClause(f)

	var n int64
	err := r.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

func auditFilterClause(f audit.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Actor != "" {
		args = append(args, f.Actor)
		conds = append(conds, fmt.Sprintf("actor = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		conds = append(conds, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// insertAuditEntry writes one entry inside the caller's transaction.
func insertAuditEntry(ctx context.Context, tx pgx.Tx, e *audit.Entry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, target_entity, previous_state, new_state, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Actor, e.Action, e.TargetEntity, e.PreviousState, e.NewState, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
