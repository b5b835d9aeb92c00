package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// scanner is implemented by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, public_id, full_name, email, phone, password_hash, is_active, is_admin,
	login_count, logout_count, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.FullName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsAdmin,
		&u.LoginCount,
		&u.LogoutCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRepository handles user data persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and fills in its id and timestamps.
// Returns ErrEmailTaken or ErrPublicIDTaken on unique violations.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	const query = `
		INSERT INTO users (public_id, full_name, email, phone, password_hash, is_active, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		u.PublicID, u.FullName, u.Email, u.Phone, u.PasswordHash, u.IsActive, u.IsAdmin,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return ErrEmailTaken
		case isUniqueViolation(err, "users_public_id_key"):
			return ErrPublicIDTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by internal id.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}
	return u, nil
}

// GetByPublicID retrieves a user by the 6-digit id users share with each other.
func (r *UserRepository) GetByPublicID(ctx context.Context, publicID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE public_id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, publicID))
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user by public id")
	}
	return u, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user by email")
	}
	return u, nil
}

// SetActive enables or disables an account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, "set user status", id, active)
}

// IncrementLogin bumps the login counter.
func (r *UserRepository) IncrementLogin(ctx context.Context, id int64) error {
	const query = `UPDATE users SET login_count = login_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, "increment login count", id)
}

// IncrementLogout bumps the logout counter.
func (r *UserRepository) IncrementLogout(ctx context.Context, id int64) error {
	const query = `UPDATE users SET logout_count = logout_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, "increment logout count", id)
}

// Search finds users whose name, email or public id contains q.
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR public_id = $1
		ORDER BY id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) execOne(ctx context.Context, query, op string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
