package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	"github.com/craftmarket/api/internal/domain"
	pfirestore "github.com/craftmarket/api/internal/platform/firestore"
	"github.com/craftmarket/api/internal/repositories"
)

// Firestore caps disjunctive filters at 30 values per query.
const catalogLookupBatchSize = 30

// CatalogReader provides read-only access to the catalog collection owned by
// the catalog subsystem.
type CatalogReader struct {
	base *pfirestore.BaseRepository[domain.CatalogItem]
}

// NewCatalogReader constructs a reader over the catalog collection.
func NewCatalogReader(provider *pfirestore.Provider) (*CatalogReader, error) {
	if provider == nil {
		return nil, errors.New("catalog reader: provider is required")
	}
	return &CatalogReader{
		base: pfirestore.NewBaseRepository[domain.CatalogItem](provider, catalogCollection, nil, decodeCatalogItem),
	}, nil
}

// ListByIDs returns the catalog rows present for the given identifiers,
// batching the lookups to stay within Firestore's "in" filter ceiling.
// Missing identifiers are simply absent from the result.
func (r *CatalogReader) ListByIDs(ctx context.Context, ids []string) ([]domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("catalog reader: not initialised")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]domain.CatalogItem, 0, len(ids))
	for _, batch := range chunk(ids, catalogLookupBatchSize) {
		batch := batch
		docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
			return query.Where(firestore.DocumentID, "in", batch)
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			out = append(out, doc.Data)
		}
	}
	return out, nil
}

var _ repositories.CatalogReader = (*CatalogReader)(nil)
