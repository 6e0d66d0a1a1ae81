package access

import (
	"context"
	"time"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

// Grant is the directory mutation an approval commits alongside the
// resolution row.
type Grant struct {
	UserID       string
	DealershipID string
	Kind         Kind
}

// ResolutionEffects ride inside the resolution transaction. The audit entry
// is written for approvals and rejections alike; the grant only on
// approval.
type ResolutionEffects struct {
	Grant *Grant
	Audit *audit.Entry
}

// Repository defines the interface for access request storage.
type Repository interface {
	// Create inserts a Pending request; ErrDuplicatePending when a Pending
	// row already exists for the same (requester, dealership, kind).
	Create(ctx context.Context, req *Request) error

	GetByID(ctx context.Context, id string) (*Request, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*Request, error)

	// Resolve performs the compare-and-swap "set status=decision where
	// id=$1 and status='pending'" and commits the effects in the same
	// transaction. Zero rows matched means another actor resolved first:
	// ErrAlreadyResolved, nothing persisted, no audit entry.
	Resolve(ctx context.Context, id string, decision Status, resolvedBy string, resolvedAt time.Time, effects ResolutionEffects) error
}
