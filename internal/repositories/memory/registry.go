package memory

import (
	"context"
	"sync"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/repositories"
	"github.com/craftmarket/api/internal/specification"
)

// Registry bundles in-memory stores for every aggregate. It backs the memory
// storage driver and most service tests.
type Registry struct {
	baskets *Repository[*domain.Basket]
	orders  *Repository[*domain.Order]
	catalog *CatalogStore
}

// NewRegistry constructs an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		baskets: NewRepository[*domain.Basket](
			func(b *domain.Basket) string { return b.ID() },
			cloneBasket,
		),
		orders: NewRepository[*domain.Order](
			func(o *domain.Order) string { return o.ID() },
			cloneOrder,
			WithLess(orderLess),
		),
		catalog: NewCatalogStore(),
	}
}

// Baskets returns the basket repository.
func (r *Registry) Baskets() repositories.Repository[*domain.Basket] { return r.baskets }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.Repository[*domain.Order] { return r.orders }

// Catalog returns the catalog reader.
func (r *Registry) Catalog() repositories.CatalogReader { return r.catalog }

// CatalogWriter exposes the mutable catalog store for seeding.
func (r *Registry) CatalogWriter() *CatalogStore { return r.catalog }

// RunInTx executes fn directly; the in-memory stores apply each write
// atomically on their own.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Close releases nothing; it exists to satisfy the registry contract.
func (r *Registry) Close(context.Context) error { return nil }

func cloneBasket(b *domain.Basket) *domain.Basket {
	if b == nil {
		return nil
	}
	return domain.RehydrateBasket(b.ID(), b.BuyerID(), b.Items(), b.CreatedAt(), b.UpdatedAt())
}

func cloneOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	return domain.RehydrateOrder(o.ID(), o.BuyerID(), o.OrderDate(), o.ShipToAddress(), o.Items())
}

func orderLess(a, b *domain.Order, directive specification.Sort) bool {
	switch directive.Field {
	case "orderDate":
		return a.OrderDate().Before(b.OrderDate())
	default:
		return a.ID() < b.ID()
	}
}

// CatalogStore is a mutable in-memory catalog used for seeding and tests.
type CatalogStore struct {
	mu    sync.RWMutex
	items map[string]domain.CatalogItem
}

// NewCatalogStore constructs an empty catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{items: make(map[string]domain.CatalogItem)}
}

// Put inserts or replaces catalog rows.
func (s *CatalogStore) Put(items ...domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// Remove deletes catalog rows by identifier.
func (s *CatalogStore) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
}

// ListByIDs returns the catalog rows present for the given identifiers.
// Missing identifiers are simply absent from the result.
func (s *CatalogStore) ListByIDs(ctx context.Context, ids []string) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}
