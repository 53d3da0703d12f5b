package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
)

// Repository defines persistence operations for administrators.
type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (AdminUser, error)
	Get(ctx context.Context, id int64) (AdminUser, error)
	FindByEmail(ctx context.Context, email string) (AdminUser, error)
	Count(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// Create inserts an administrator.
func (r *PGRepository) Create(ctx context.Context, email, passwordHash string) (AdminUser, error) {
	u := AdminUser{Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	err := r.db.QueryRow(ctx, `INSERT INTO admin_users (email, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id`,
		u.Email, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return AdminUser{}, shared.ErrAlreadyExists
		}
		return AdminUser{}, err
	}
	return u, nil
}

// Get fetches an administrator by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (AdminUser, error) {
	return r.one(ctx, `SELECT id, email, password_hash, created_at FROM admin_users WHERE id = $1`, id)
}

// FindByEmail fetches an administrator by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (AdminUser, error) {
	return r.one(ctx, `SELECT id, email, password_hash, created_at FROM admin_users WHERE lower(email) = lower($1)`, email)
}

// Count returns the number of administrators.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM admin_users`).Scan(&n)
	return n, err
}

// UpdatePassword replaces the password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE admin_users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) one(ctx context.Context, query string, args ...any) (AdminUser, error) {
	var u AdminUser
	err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, shared.ErrNotFound
	}
	return u, err
}

var _ Repository = (*PGRepository)(nil)
