package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/orders/export"
	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
)

// IdempotencyModule scopes checkout keys in the idempotency store.
const IdempotencyModule = "checkout"

// TxRepository exposes the writes of a checkout inside one transaction.
type TxRepository interface {
	ClaimCheckoutKey(ctx context.Context, key string) error
	Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
	InsertOrder(ctx context.Context, order Order) (Order, error)
}

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	ListVisible(ctx context.Context) ([]Order, error)
	ListForExport(ctx context.Context) ([]export.Record, error)
	SetVisible(ctx context.Context, id int64, visible bool) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetNotificationStatus(ctx context.Context, checkoutKey, status, errText string) error
}

// Pool is satisfied by *pgxpool.Pool.
type Pool interface {
	db.DBTX
	db.Beginner
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTxRepository{
			tx:       tx,
			keys:     shared.NewIdempotencyStore(tx),
			products: catalog.NewRepository(tx),
		})
	})
}

const orderColumns = `o.id, o.name, o.email, o.address, o.product_id, o.customer_id, o.quantity, o.unit_price,
	o.payment_method, o.status, o.visible, o.checkout_key, o.notification_status, o.notification_error, o.created_at,
	COALESCE(p.name, '')`

const orderFrom = ` FROM orders o LEFT JOIN products p ON p.id = o.product_id`

// Get fetches one order.
func (r *PGRepository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	return o, err
}

// ListByCustomer returns the orders of a customer, newest first.
func (r *PGRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.customer_id = $1 ORDER BY o.created_at DESC, o.id DESC`, customerID)
}

// ListVisible returns orders not hidden by an admin, newest first.
func (r *PGRepository) ListVisible(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.visible ORDER BY o.created_at DESC, o.id DESC`)
}

// ListForExport returns every order joined with customer and product.
func (r *PGRepository) ListForExport(ctx context.Context) ([]export.Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT o.id, c.name, c.email, o.email, o.address, p.name, o.quantity, o.created_at, o.status
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		LEFT JOIN products p ON p.id = o.product_id
		ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []export.Record
	for rows.Next() {
		var rec export.Record
		if err := rows.Scan(&rec.OrderID, &rec.CustomerName, &rec.CustomerEmail, &rec.Email, &rec.Address, &rec.ProductName, &rec.Quantity, &rec.CreatedAt, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetVisible toggles the soft-delete flag.
func (r *PGRepository) SetVisible(ctx context.Context, id int64, visible bool) error {
	return r.execOne(ctx, `UPDATE orders SET visible = $1 WHERE id = $2`, visible, id)
}

// UpdateStatus changes the order status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.execOne(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
}

// SetNotificationStatus records the confirmation outcome on every row of a checkout.
func (r *PGRepository) SetNotificationStatus(ctx context.Context, checkoutKey, status, errText string) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET notification_status = $1, notification_error = $2 WHERE checkout_key = $3`, status, errText, checkoutKey)
	return err
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Address, &o.ProductID, &o.CustomerID, &o.Quantity, &o.UnitPrice,
		&o.PaymentMethod, &o.Status, &o.Visible, &o.CheckoutKey, &o.NotificationStatus, &o.NotificationError, &o.CreatedAt,
		&o.ProductName)
	return o, err
}

type pgTxRepository struct {
	tx       pgx.Tx
	keys     *shared.IdempotencyStore
	products *catalog.PGRepository
}

func (t *pgTxRepository) ClaimCheckoutKey(ctx context.Context, key string) error {
	err := t.keys.CheckAndInsert(ctx, key, IdempotencyModule)
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		return ErrDuplicateCheckout
	}
	return err
}

func (t *pgTxRepository) Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	return t.products.GetMany(ctx, ids)
}

func (t *pgTxRepository) InsertOrder(ctx context.Context, o Order) (Order, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO orders (name, email, address, product_id, customer_id, quantity, unit_price,
			payment_method, status, visible, checkout_key, notification_status, notification_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, '', $13) RETURNING id`,
		o.Name, o.Email, o.Address, o.ProductID, o.CustomerID, o.Quantity, o.UnitPrice,
		o.PaymentMethod, o.Status, o.Visible, o.CheckoutKey, o.NotificationStatus, o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

var _ Repository = (*PGRepository)(nil)
