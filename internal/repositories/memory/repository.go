// Package memory provides map-backed repository implementations used by
// tests and the memory storage driver. The full specification contract is
// evaluated in process: predicate filtering, ordering, and result windows.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/craftmarket/api/internal/specification"
)

// Identify extracts the aggregate identifier used as the map key.
type Identify[T any] func(T) string

// Clone produces an isolated copy so callers can never mutate stored state.
type Clone[T any] func(T) T

// Less orders two entities for one sort directive. Ascending order; the
// repository reverses it for descending directives.
type Less[T any] func(a, b T, sort specification.Sort) bool

// Repository is a concurrency-safe in-memory aggregate store.
type Repository[T any] struct {
	mu       sync.RWMutex
	items    map[string]T
	identify Identify[T]
	clone    Clone[T]
	less     Less[T]
}

// Option customises Repository behaviour.
type Option[T any] func(*Repository[T])

// WithLess installs the comparator used for OrderBy directives. Without one,
// results are ordered by identifier.
func WithLess[T any](less Less[T]) Option[T] {
	return func(r *Repository[T]) {
		r.less = less
	}
}

// NewRepository constructs an empty repository.
func NewRepository[T any](identify Identify[T], clone Clone[T], opts ...Option[T]) *Repository[T] {
	if identify == nil {
		panic("memory: identify function is required")
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	repo := &Repository[T]{
		items:    make(map[string]T),
		identify: identify,
		clone:    clone,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

type repoError struct {
	msg      string
	notFound bool
	conflict bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return false }

func notFound(format string, args ...any) error {
	return &repoError{msg: fmt.Sprintf(format, args...), notFound: true}
}

func conflict(format string, args ...any) error {
	return &repoError{msg: fmt.Sprintf(format, args...), conflict: true}
}

// GetByID loads one aggregate by identifier.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return zero, notFound("memory: entity %q not found", id)
	}
	return r.clone(item), nil
}

// List returns every aggregate matching the specification.
func (r *Repository[T]) List(ctx context.Context, spec specification.Query[T]) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := r.matchLocked(spec)
	r.mu.RUnlock()

	r.order(matched, spec.OrderBy)
	matched = window(matched, spec.Skip, spec.Take)

	out := make([]T, len(matched))
	for i, item := range matched {
		out[i] = r.clone(item)
	}
	return out, nil
}

// Count returns the number of matching aggregates. The result window does
// not apply.
func (r *Repository[T]) Count(ctx context.Context, spec specification.Query[T]) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchLocked(spec)), nil
}

// FirstMatching returns the first match in specification order.
func (r *Repository[T]) FirstMatching(ctx context.Context, spec specification.Query[T]) (T, error) {
	var zero T
	matched, err := r.List(ctx, spec)
	if err != nil {
		return zero, err
	}
	if len(matched) == 0 {
		return zero, notFound("memory: no entity matches the specification")
	}
	return matched[0], nil
}

// Add stores a new aggregate, failing with a conflict when the identifier is
// taken.
func (r *Repository[T]) Add(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := r.identify(entity)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; exists {
		return conflict("memory: entity %q already exists", id)
	}
	r.items[id] = r.clone(entity)
	return nil
}

// Update overwrites an existing aggregate.
func (r *Repository[T]) Update(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := r.identify(entity)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; !exists {
		return notFound("memory: entity %q not found", id)
	}
	r.items[id] = r.clone(entity)
	return nil
}

// Delete removes an aggregate.
func (r *Repository[T]) Delete(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := r.identify(entity)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; !exists {
		return notFound("memory: entity %q not found", id)
	}
	delete(r.items, id)
	return nil
}

// DeleteMany removes every matching aggregate. Removing nothing is not an
// error.
func (r *Repository[T]) DeleteMany(ctx context.Context, spec specification.Query[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if spec.Matches == nil || spec.Matches(item) {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *Repository[T]) matchLocked(spec specification.Query[T]) []T {
	matched := make([]T, 0, len(r.items))
	for _, item := range r.items {
		if spec.Matches == nil || spec.Matches(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

func (r *Repository[T]) order(items []T, directives []specification.Sort) {
	if len(directives) == 0 || r.less == nil {
		// Identifier order keeps results deterministic across runs.
		sort.Slice(items, func(i, j int) bool {
			return r.identify(items[i]) < r.identify(items[j])
		})
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, directive := range directives {
			a, b := items[i], items[j]
			if directive.Desc {
				a, b = b, a
			}
			if r.less(a, b, directive) {
				return true
			}
			if r.less(b, a, directive) {
				return false
			}
		}
		return false
	})
}

func window[T any](items []T, skip, take *int) []T {
	if skip != nil && *skip > 0 {
		if *skip >= len(items) {
			return nil
		}
		items = items[*skip:]
	}
	if take != nil && *take >= 0 && *take < len(items) {
		items = items[:*take]
	}
	return items
}
