// Package firestore implements the repository ports on Cloud Firestore. One
// generic store serves every aggregate; specifications are translated to
// native Firestore queries instead of being evaluated in process.
package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/craftmarket/api/internal/platform/firestore"
	"github.com/craftmarket/api/internal/repositories"
	"github.com/craftmarket/api/internal/specification"
)

// Identify extracts the aggregate identifier used as the document ID.
type Identify[T any] func(T) string

// Store adapts a typed Firestore collection to the generic repository port.
type Store[T any] struct {
	base       *pfirestore.BaseRepository[T]
	collection string
	identify   Identify[T]
}

// NewStore constructs a Store bound to one collection. The encoder and
// decoder convert between the aggregate and its document shape.
func NewStore[T any](
	provider *pfirestore.Provider,
	collection string,
	identify Identify[T],
	encode pfirestore.Encoder[T],
	decode pfirestore.Decoder[T],
) (*Store[T], error) {
	if provider == nil {
		return nil, errors.New("firestore store: provider is required")
	}
	if identify == nil {
		return nil, errors.New("firestore store: identify function is required")
	}
	return &Store[T]{
		base:       pfirestore.NewBaseRepository[T](provider, collection, encode, decode),
		collection: collection,
		identify:   identify,
	}, nil
}

// GetByID loads one aggregate by document ID.
func (s *Store[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := s.base.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	return doc.Data, nil
}

// List returns every aggregate matching the specification. Filters, ordering,
// and the result window all run server side.
func (s *Store[T]) List(ctx context.Context, spec specification.Query[T]) ([]T, error) {
	docs, err := s.base.Query(ctx, translate(spec))
	if err != nil {
		return nil, err
	}
	out := make([]T, len(docs))
	for i, doc := range docs {
		out[i] = doc.Data
	}
	return out, nil
}

// Count returns the number of matching aggregates without decoding them.
func (s *Store[T]) Count(ctx context.Context, spec specification.Query[T]) (int, error) {
	return s.base.CountQuery(ctx, translate(spec))
}

// FirstMatching returns the first match in specification order or a
// categorised not-found error.
func (s *Store[T]) FirstMatching(ctx context.Context, spec specification.Query[T]) (T, error) {
	var zero T
	take := 1
	spec.Take = &take

	docs, err := s.base.Query(ctx, translate(spec))
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, pfirestore.NotFoundError(s.collection+".first", errors.New("no document matches the specification"))
	}
	return docs[0].Data, nil
}

// Add creates the document, failing with a conflict when the ID is taken.
func (s *Store[T]) Add(ctx context.Context, entity T) error {
	_, err := s.base.Create(ctx, s.identify(entity), entity)
	return err
}

// Update overwrites the stored document. Callers load the aggregate before
// mutating it, so a plain set keeps the write path free of read-modify races
// inside the adapter itself.
func (s *Store[T]) Update(ctx context.Context, entity T) error {
	_, err := s.base.Set(ctx, s.identify(entity), entity)
	return err
}

// Delete removes the document. Deleting an absent document is not an error.
func (s *Store[T]) Delete(ctx context.Context, entity T) error {
	return s.base.Delete(ctx, s.identify(entity))
}

// DeleteMany removes every matching document.
func (s *Store[T]) DeleteMany(ctx context.Context, spec specification.Query[T]) error {
	docs, err := s.base.Query(ctx, translate(spec))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.base.Delete(ctx, doc.ID); err != nil {
			return err
		}
	}
	return nil
}

// translate compiles the declarative specification into a Firestore query.
// The compiled in-memory predicate is ignored; Firestore evaluates the
// filters itself. Includes need no translation because item lines live
// embedded in their aggregate document.
func translate[T any](spec specification.Query[T]) pfirestore.QueryBuilder {
	return func(query firestore.Query) firestore.Query {
		for _, filter := range spec.Filters {
			query = query.Where(fieldPath(filter.Field), string(filter.Op), filter.Value)
		}
		for _, sort := range spec.OrderBy {
			direction := firestore.Asc
			if sort.Desc {
				direction = firestore.Desc
			}
			query = query.OrderBy(fieldPath(sort.Field), direction)
		}
		if spec.Skip != nil && *spec.Skip > 0 {
			query = query.Offset(*spec.Skip)
		}
		if spec.Take != nil && *spec.Take >= 0 {
			query = query.Limit(*spec.Take)
		}
		return query
	}
}

func fieldPath(field string) string {
	if field == specification.FieldID {
		return firestore.DocumentID
	}
	return field
}

// chunk splits ids into windows no larger than size, the ceiling Firestore
// puts on disjunctive "in" filters.
func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		return [][]string{ids}
	}
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

var _ repositories.Repository[any] = (*Store[any])(nil)
