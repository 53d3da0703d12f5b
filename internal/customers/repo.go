package customers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
)

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	FindByEmail(ctx context.Context, email string) (Customer, error)
	UpdateProfile(ctx context.Context, id int64, form ProfileForm) error
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

const customerColumns = `id, name, surname, email, password_hash, address, phone, created_at, updated_at`

// Create inserts a customer; a taken email yields shared.ErrAlreadyExists.
func (r *PGRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, `INSERT INTO customers (name, surname, email, password_hash, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		c.Name, c.Surname, c.Email, c.PasswordHash, c.Address, c.Phone, now).Scan(&c.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Customer{}, shared.ErrAlreadyExists
		}
		return Customer{}, err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

// Get fetches a customer by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Customer, error) {
	return r.one(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// FindByEmail fetches a customer by case-insensitive email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Customer, error) {
	return r.one(ctx, `SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1)`, email)
}

// UpdateProfile stores the editable profile fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, form ProfileForm) error {
	return r.exec(ctx, `UPDATE customers SET name = $1, surname = $2, address = $3, phone = $4, updated_at = now() WHERE id = $5`,
		form.Name, form.Surname, form.Address, form.Phone, id)
}

// UpdatePassword replaces the password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE customers SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *PGRepository) one(ctx context.Context, query string, args ...any) (Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, query, args...).Scan(&c.ID, &c.Name, &c.Surname, &c.Email, &c.PasswordHash, &c.Address, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *PGRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
