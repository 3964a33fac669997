package specification

import (
	"slices"

	"github.com/craftmarket/api/internal/domain"
)

// Well-known field names shared by every persistence adapter.
const (
	FieldID      = "id"
	FieldBuyerID = "buyerId"

	IncludeItems = "items"
)

// BasketWithItemsByID loads one basket, item lines included.
func BasketWithItemsByID(basketID string) Query[*domain.Basket] {
	return New[*domain.Basket]().
		Where(Filter{Field: FieldID, Op: OpEqual, Value: basketID}, func(b *domain.Basket) bool {
			return b.ID() == basketID
		}).
		Including(IncludeItems)
}

// BasketWithItemsByBuyer loads the buyer's basket, item lines included. A
// buyer owns at most one basket, so callers pair this with FirstMatching.
func BasketWithItemsByBuyer(buyerID string) Query[*domain.Basket] {
	return New[*domain.Basket]().
		Where(Filter{Field: FieldBuyerID, Op: OpEqual, Value: buyerID}, func(b *domain.Basket) bool {
			return b.BuyerID() == buyerID
		}).
		Including(IncludeItems)
}

// CatalogItemsByIDs loads the catalog rows for the given identifiers. Result
// order is unspecified; callers index by ID.
func CatalogItemsByIDs(ids ...string) Query[domain.CatalogItem] {
	return New[domain.CatalogItem]().
		Where(Filter{Field: FieldID, Op: OpIn, Value: ids}, func(c domain.CatalogItem) bool {
			return slices.Contains(ids, c.ID)
		})
}

// OrdersByBuyer loads a buyer's orders, newest first.
func OrdersByBuyer(buyerID string) Query[*domain.Order] {
	return New[*domain.Order]().
		Where(Filter{Field: FieldBuyerID, Op: OpEqual, Value: buyerID}, func(o *domain.Order) bool {
			return o.BuyerID() == buyerID
		}).
		Including(IncludeItems).
		OrderedBy("orderDate", true)
}
