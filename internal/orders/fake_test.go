package orders_test

import (
	"context"
	"sort"
	"sync"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/orders/export"
	"github.com/artemoderno/storefront/internal/shared"
)

// memoryRepo keeps orders in memory and applies a transaction's writes only
// when its callback succeeds.
type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]orders.Order
	keys     map[string]bool
	products map[int64]catalog.Product
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{
		orders:   make(map[int64]orders.Order),
		keys:     make(map[string]bool),
		products: make(map[int64]catalog.Product),
	}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

type memoryTx struct {
	repo   *memoryRepo
	keys   []string
	orders []orders.Order
	nextID int64
}

func (t *memoryTx) ClaimCheckoutKey(ctx context.Context, key string) error {
	if t.repo.keys[key] {
		return orders.ErrDuplicateCheckout
	}
	t.keys = append(t.keys, key)
	return nil
}

func (t *memoryTx) Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	out := make(map[int64]catalog.Product)
	for _, id := range ids {
		if p, ok := t.repo.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	t.nextID++
	o.ID = t.nextID
	t.orders = append(t.orders, o)
	return o, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(orders.TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{repo: m, nextID: m.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	for _, k := range tx.keys {
		m.keys[k] = true
	}
	for _, o := range tx.orders {
		m.orders[o.ID] = o
	}
	m.nextID = tx.nextID
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orders.Order{}, shared.ErrNotFound
	}
	if o.ProductID != nil {
		o.ProductName = m.products[*o.ProductID].Name
	}
	return o, nil
}

func (m *memoryRepo) all(keep func(orders.Order) bool) []orders.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.Order
	for _, o := range m.orders {
		if keep(o) {
			if o.ProductID != nil {
				o.ProductName = m.products[*o.ProductID].Name
			}
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryRepo) ListByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error) {
	return m.all(func(o orders.Order) bool { return o.CustomerID != nil && *o.CustomerID == customerID }), nil
}

func (m *memoryRepo) ListVisible(ctx context.Context) ([]orders.Order, error) {
	return m.all(func(o orders.Order) bool { return o.Visible }), nil
}

func (m *memoryRepo) ListForExport(ctx context.Context) ([]export.Record, error) {
	var out []export.Record
	for _, o := range m.all(func(orders.Order) bool { return true }) {
		rec := export.Record{OrderID: o.ID, Email: o.Email, Address: o.Address, Quantity: o.Quantity, CreatedAt: o.CreatedAt, Status: o.Status}
		if o.ProductName != "" {
			name := o.ProductName
			rec.ProductName = &name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memoryRepo) update(id int64, fn func(*orders.Order)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	fn(&o)
	m.orders[id] = o
	return nil
}

func (m *memoryRepo) SetVisible(ctx context.Context, id int64, visible bool) error {
	return m.update(id, func(o *orders.Order) { o.Visible = visible })
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.update(id, func(o *orders.Order) { o.Status = status })
}

func (m *memoryRepo) SetNotificationStatus(ctx context.Context, checkoutKey, status, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.orders {
		if o.CheckoutKey == checkoutKey {
			o.NotificationStatus = status
			o.NotificationError = errText
			m.orders[id] = o
		}
	}
	return nil
}

func (m *memoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// product backs the productLookup adapter.
func (m *memoryRepo) product(ctx context.Context, id int64) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

// Products implements cart.Resolver for handler tests.
func (m *memoryRepo) Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]catalog.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memoryRepo) deleteProduct(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

type productLookup struct{ repo *memoryRepo }

func (l productLookup) Get(ctx context.Context, id int64) (catalog.Product, error) {
	return l.repo.product(ctx, id)
}

type notifierFunc func(ctx context.Context, n orders.Notification) error

func (f notifierFunc) NotifyOrder(ctx context.Context, n orders.Notification) error {
	return f(ctx, n)
}
