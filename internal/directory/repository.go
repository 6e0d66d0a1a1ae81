package directory

import (
	"context"
)

// Repository defines the interface for user storage
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	ListByDealership(ctx context.Context, dealershipID string) ([]*User, error)
}

// AssignmentRepository defines the interface for corporate visibility
// assignments.
type AssignmentRepository interface {
	ListForUser(ctx context.Context, userID string) ([]*CorporateAssignment, error)
	ListForDealership(ctx context.Context, dealershipID string) ([]*CorporateAssignment, error)
}
