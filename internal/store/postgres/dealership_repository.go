package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
)

// DealershipRepository implements dealership.Repository
type DealershipRepository struct {
	db *DB
}

// NewDealershipRepository creates a new dealership repository
func NewDealershipRepository(db *DB) *DealershipRepository {
	return &DealershipRepository{db: db}
}

const dealershipColumns = `id, name, address, city, state, zip_code, status, created_at, updated_at`

// Create inserts a dealership.
func (r *DealershipRepository) Create(ctx context.Context, d *dealership.Dealership) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO dealerships (`+dealershipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID, d.Name, d.Address, d.City, d.State, d.ZipCode, d.Status, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return dealership.ErrDealershipExists
		}
		return fmt.Errorf("failed to create dealership: %w", err)
	}
	return nil
}

// GetByID retrieves a dealership by id.
func (r *DealershipRepository) GetByID(ctx context.Context, id string) (*dealership.Dealership, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+dealershipColumns+` FROM dealerships WHERE id = $1`, id)
	return scanDealership(row)
}

// GetByName retrieves a dealership by name.
func (r *DealershipRepository) GetByName(ctx context.Context, name string) (*dealership.Dealership, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+dealershipColumns+` FROM dealerships WHERE name = $1`, name)
	return scanDealership(row)
}

// Update persists dealership changes.
func (r *DealershipRepository) Update(ctx context.Context, d *dealership.Dealership) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE dealerships SET name = $1, address = $2, city = $3, state = $4,
			zip_code = $5, status = $6, updated_at = $7
		WHERE id = $8
	`, d.Name, d.Address, d.City, d.State, d.ZipCode, d.Status, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update dealership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dealership.ErrDealershipNotFound
	}
	return nil
}

// List lists dealerships with pagination.
func (r *DealershipRepository) List(ctx context.Context, limit, offset int) ([]*dealership.Dealership, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+dealershipColumns+` FROM dealerships ORDER BY created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list dealerships: %w", err)
	}
	defer rows.Close()

	var out []*dealership.Dealership
	for rows.Next() {
		var d dealership.Dealership
		if err := rows.Scan(&d.ID, &d.Name, &d.Address, &d.City, &d.State, &d.ZipCode, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dealership: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func scanDealership(row pgx.Row) (*dealership.Dealership, error) {
	var d dealership.Dealership
	err := row.Scan(&d.ID, &d.Name, &d.Address, &d.City, &d.State, &d.ZipCode, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dealership.ErrDealershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dealership: %w", err)
	}
	return &d, nil
}
