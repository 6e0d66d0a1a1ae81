package postgres

import (
	"context"
	"fmt"

	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

// AssignmentRepository implements directory.AssignmentRepository. Grants
// are written by the approval engine's resolution transaction; this
// repository only reads.
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListForUser returns a corporate user's visible dealerships.
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID string) ([]*directory.CorporateAssignment, error) {
	return r.list(ctx, `user_id = $1`, userID)
}

// ListForDealership returns the corporate users assigned to a dealership.
func (r *AssignmentRepository) ListForDealership(ctx context.Context, dealershipID string) ([]*directory.CorporateAssignment, error) {
	return r.list(ctx, `dealership_id = $1`, dealershipID)
}

func (r *AssignmentRepository) list(ctx context.Context, where string, arg any) ([]*directory.CorporateAssignment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, dealership_id, granted_at, granted_by
		FROM corporate_assignments WHERE `+where+`
		ORDER BY granted_at
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []*directory.CorporateAssignment
	for rows.Next() {
		var a directory.CorporateAssignment
		if err := rows.Scan(&a.UserID, &a.DealershipID, &a.GrantedAt, &a.GrantedBy); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
