// Package specification describes queries declaratively so that callers stay
// independent of the storage engine. A Query carries structured filter,
// ordering, and paging data that persistence adapters translate to their
// native query language, plus a compiled predicate for adapters that evaluate
// in memory.
package specification

// Operator enumerates the filter comparisons adapters must support.
type Operator string

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Operator = "=="
	// OpIn matches documents whose field equals any element of the value
	// slice.
	OpIn Operator = "in"
)

// Filter is one field comparison.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Sort is one ordering directive. Adapters apply directives in slice order.
type Sort struct {
	Field string
	Desc  bool
}

// Query is a storage-agnostic description of which aggregates to load and in
// what shape. Skip/Take are nil when the caller wants the full result set.
type Query[T any] struct {
	Filters  []Filter
	Includes []string
	OrderBy  []Sort
	Skip     *int
	Take     *int

	// Matches evaluates the filter set against a single candidate. In-memory
	// adapters use it directly; translating adapters ignore it.
	Matches func(T) bool
}

// New returns an empty query that matches everything.
func New[T any]() Query[T] {
	return Query[T]{Matches: func(T) bool { return true }}
}

// Where appends a filter and narrows the compiled predicate with pred.
func (q Query[T]) Where(f Filter, pred func(T) bool) Query[T] {
	q.Filters = append(q.Filters, f)
	prev := q.Matches
	q.Matches = func(v T) bool {
		if prev != nil && !prev(v) {
			return false
		}
		return pred(v)
	}
	return q
}

// Including declares related collections the adapter must load with the
// aggregate. Single-document stores satisfy includes implicitly.
func (q Query[T]) Including(relations ...string) Query[T] {
	q.Includes = append(q.Includes, relations...)
	return q
}

// OrderedBy appends an ordering directive.
func (q Query[T]) OrderedBy(field string, desc bool) Query[T] {
	q.OrderBy = append(q.OrderBy, Sort{Field: field, Desc: desc})
	return q
}

// Page applies a result window. Negative values are treated as zero by
// adapters.
func (q Query[T]) Page(skip, take int) Query[T] {
	q.Skip = &skip
	q.Take = &take
	return q
}
