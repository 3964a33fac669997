package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	"github.com/craftmarket/api/internal/domain"
	pfirestore "github.com/craftmarket/api/internal/platform/firestore"
	"github.com/craftmarket/api/internal/repositories"
)

// Registry bundles the Firestore-backed stores behind the repository ports.
type Registry struct {
	provider *pfirestore.Provider
	baskets  *Store[*domain.Basket]
	orders   *Store[*domain.Order]
	catalog  *CatalogReader
}

// NewRegistry wires the aggregate stores onto a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}

	baskets, err := NewStore(provider, basketCollection,
		func(b *domain.Basket) string { return b.ID() }, encodeBasket, decodeBasket)
	if err != nil {
		return nil, err
	}
	orders, err := NewStore(provider, orderCollection,
		func(o *domain.Order) string { return o.ID() }, encodeOrder, decodeOrder)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogReader(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		baskets:  baskets,
		orders:   orders,
		catalog:  catalog,
	}, nil
}

// Baskets returns the basket repository.
func (r *Registry) Baskets() repositories.Repository[*domain.Basket] { return r.baskets }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.Repository[*domain.Order] { return r.orders }

// Catalog returns the catalog reader.
func (r *Registry) Catalog() repositories.CatalogReader { return r.catalog }

// RunInTx runs fn inside a Firestore transaction. The function receives the
// same context; writes issued through the stores stay independent documents,
// so the boundary covers one aggregate write.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

// Close releases the shared client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

var _ repositories.Registry = (*Registry)(nil)
