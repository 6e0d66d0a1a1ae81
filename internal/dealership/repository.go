package dealership

import (
	"context"
)

// Repository defines the interface for dealership storage
type Repository interface {
	Create(ctx context.Context, d *Dealership) error
	GetByID(ctx context.Context, id string) (*Dealership, error)
	GetByName(ctx context.Context, name string) (*Dealership, error)
	Update(ctx context.Context, d *Dealership) error
	List(ctx context.Context, limit, offset int) ([]*Dealership, error)
}
