package catalog_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]catalog.Product
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[int64]catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
		if p.ID > repo.nextID {
			repo.nextID = p.ID
		}
	}
	return repo
}

func (m *memoryRepo) List(ctx context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) GetMany(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
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

func (m *memoryRepo) First(ctx context.Context) (catalog.Product, error) {
	list, _ := m.List(ctx)
	if len(list) == 0 {
		return catalog.Product{}, shared.ErrNotFound
	}
	return list[0], nil
}

func (m *memoryRepo) Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := catalog.Product{ID: m.nextID, Name: in.Name, Description: in.Description, Price: in.Price, Stock: in.Stock, ImageFilename: in.ImageFilename, CreatedAt: time.Now()}
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, in catalog.ProductInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Name, p.Description, p.Price, p.Stock, p.ImageFilename = in.Name, in.Description, in.Price, in.Stock, in.ImageFilename
	m.products[id] = p
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}
