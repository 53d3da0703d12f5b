package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
)

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]Product, error)
	First(ctx context.Context) (Product, error)
	Create(ctx context.Context, in ProductInput) (Product, error)
	Update(ctx context.Context, id int64, in ProductInput) error
	Delete(ctx context.Context, id int64) error
}

const productColumns = `id, name, description, price, stock, image_filename, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL. It runs on a pool or
// inside a caller's transaction.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// List returns every product ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get fetches one product.
func (r *PGRepository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// GetMany resolves the given ids. Missing ids are simply absent from the map.
func (r *PGRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// First returns the product with the lowest id.
func (r *PGRepository) First(ctx context.Context) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products ORDER BY id LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// Create inserts a product.
func (r *PGRepository) Create(ctx context.Context, in ProductInput) (Product, error) {
	now := time.Now()
	p := Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Stock:         in.Stock,
		ImageFilename: in.ImageFilename,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := r.db.QueryRow(ctx, `INSERT INTO products (name, description, price, stock, image_filename, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		in.Name, in.Description, in.Price, in.Stock, in.ImageFilename, now).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update overwrites the writable fields of a product.
func (r *PGRepository) Update(ctx context.Context, id int64, in ProductInput) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET name = $1, description = $2, price = $3, stock = $4, image_filename = $5, updated_at = $6 WHERE id = $7`,
		in.Name, in.Description, in.Price, in.Stock, in.ImageFilename, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a product. Orders keep their snapshot with a NULL product.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageFilename, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

var _ Repository = (*PGRepository)(nil)
