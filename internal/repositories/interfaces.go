// Package repositories defines the persistence contracts the workflow
// services depend on. Implementations live in sibling packages (firestore,
// memory) and are selected by configuration.
package repositories

import (
	"context"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/specification"
)

// Registry exposes typed repository accessors and lifecycle hooks for
// dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Baskets() Repository[*domain.Basket]
	Orders() Repository[*domain.Order]
	Catalog() CatalogReader
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional
// boundary when supported. The boundary covers one aggregate write; there are
// no cross-aggregate transactions.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository is the generic persistence port for one aggregate type. Reads
// accept a specification so callers never depend on the storage engine's
// query language. Every method honours context cancellation.
type Repository[T any] interface {
	// GetByID loads one aggregate. Returns a RepositoryError with IsNotFound
	// when absent.
	GetByID(ctx context.Context, id string) (T, error)
	// List returns every aggregate matching the specification, ordered and
	// windowed as the specification directs.
	List(ctx context.Context, spec specification.Query[T]) ([]T, error)
	// Count returns the number of matching aggregates without loading them.
	Count(ctx context.Context, spec specification.Query[T]) (int, error)
	// FirstMatching returns the first match or a not-found RepositoryError.
	FirstMatching(ctx context.Context, spec specification.Query[T]) (T, error)

	Add(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, entity T) error
	DeleteMany(ctx context.Context, spec specification.Query[T]) error
}

// CatalogReader is the read-only port onto the catalog subsystem. The kernel
// never writes catalog data.
type CatalogReader interface {
	// ListByIDs returns the catalog rows for the given identifiers. Missing
	// identifiers are simply absent from the result; the caller decides how
	// to treat the gap. Result order is unspecified.
	ListByIDs(ctx context.Context, ids []string) ([]domain.CatalogItem, error)
}
