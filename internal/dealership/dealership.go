package dealership

import (
	"errors"
	"time"
)

var (
	ErrDealershipNotFound = errors.New("dealership not found")
	ErrDealershipExists   = errors.New("dealership already exists")
)

// Dealership represents one organizational account. Subscription status
// lives on the billing record, not here; the dealership row carries only
// identity and profile.
type Dealership struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status constants. A deleted dealership is tombstoned, never removed, so
// late webhooks resolve Stale against the retained subscription record
// instead of erroring.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)
