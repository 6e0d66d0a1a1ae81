package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

// UserRepository implements directory.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, role, dealership_id, password_hash, admin_access, created_at, updated_at`

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user *directory.User) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.Email, user.FullName, user.Role, nullableString(user.DealershipID),
		user.PasswordHash, user.AdminAccess, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return directory.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*directory.User, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

// Update persists profile changes. Role mutations do not go through here;
// they are written by the billing or approval transaction that caused
// them.
func (r *UserRepository) Update(ctx context.Context, user *directory.User) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE users SET email = $1, full_name = $2, role = $3, dealership_id = $4,
			password_hash = $5, admin_access = $6, updated_at = $7
		WHERE id = $8
	`, user.Email, user.FullName, user.Role, nullableString(user.DealershipID),
		user.PasswordHash, user.AdminAccess, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrUserNotFound
	}
	return nil
}

// ListByDealership lists users associated with a dealership.
func (r *UserRepository) ListByDealership(ctx context.Context, dealershipID string) ([]*directory.User, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users WHERE dealership_id = $1 ORDER BY email
	`, dealershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*directory.User
	for rows.Next() {
		user, err := scanUserFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*directory.User, error) {
	var user directory.User
	var dealershipID sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &dealershipID,
		&user.PasswordHash, &user.AdminAccess, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, directory.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if dealershipID.Valid {
		user.DealershipID = dealershipID.String
	}
	return &user, nil
}

func scanUserFromRows(rows pgx.Rows) (*directory.User, error) {
	var user directory.User
	var dealershipID sql.NullString
	if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &dealershipID,
		&user.PasswordHash, &user.AdminAccess, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if dealershipID.Valid {
		user.DealershipID = dealershipID.String
	}
	return &user, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
