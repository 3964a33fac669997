package domain

import (
	"fmt"
	"strings"
	"time"
)

// BasketItem is a single priced line owned by a Basket. The unit price is the
// catalog price captured when the line was first added; it does not track
// later catalog changes.
type BasketItem struct {
	CatalogItemID string
	UnitPrice     int64
	Quantity      int
}

// Basket aggregates the mutable shopping state for one buyer. The item slice
// is private; callers mutate it only through aggregate methods and read it
// only through defensive copies.
type Basket struct {
	id        string
	buyerID   string
	items     []BasketItem
	createdAt time.Time
	updatedAt time.Time
}

// NewBasket constructs an empty basket owned by buyerID.
func NewBasket(id, buyerID string, now time.Time) (*Basket, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: basket id is required", ErrValidation)
	}
	buyer := strings.TrimSpace(buyerID)
	if buyer == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrValidation)
	}
	ts := now.UTC()
	return &Basket{
		id:        trimmedID,
		buyerID:   buyer,
		items:     []BasketItem{},
		createdAt: ts,
		updatedAt: ts,
	}, nil
}

// RehydrateBasket reconstructs a basket from persisted state. Adapters own
// the stored invariants; only structural normalisation happens here.
func RehydrateBasket(id, buyerID string, items []BasketItem, createdAt, updatedAt time.Time) *Basket {
	dup := make([]BasketItem, len(items))
	copy(dup, items)
	return &Basket{
		id:        strings.TrimSpace(id),
		buyerID:   strings.TrimSpace(buyerID),
		items:     dup,
		createdAt: createdAt.UTC(),
		updatedAt: updatedAt.UTC(),
	}
}

// ID returns the basket identifier.
func (b *Basket) ID() string { return b.id }

// BuyerID returns the current owner, an authenticated username or an
// anonymous session identifier.
func (b *Basket) BuyerID() string { return b.buyerID }

// CreatedAt returns the creation timestamp.
func (b *Basket) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last mutation timestamp.
func (b *Basket) UpdatedAt() time.Time { return b.updatedAt }

// Items returns a copy of the basket lines. Mutating the returned slice has
// no effect on the aggregate.
func (b *Basket) Items() []BasketItem {
	dup := make([]BasketItem, len(b.items))
	copy(dup, b.items)
	return dup
}

// TotalItems sums the quantities across all lines.
func (b *Basket) TotalItems() int {
	total := 0
	for _, item := range b.items {
		total += item.Quantity
	}
	return total
}

// IsEmpty reports whether the basket has no lines.
func (b *Basket) IsEmpty() bool { return len(b.items) == 0 }

// AddItem appends a new line for catalogItemID or, when a line already
// exists, consolidates by incrementing its quantity. The stored unit price is
// the one captured on first add.
func (b *Basket) AddItem(catalogItemID string, unitPrice int64, quantity int, now time.Time) error {
	itemID := strings.TrimSpace(catalogItemID)
	if itemID == "" {
		return fmt.Errorf("%w: catalog item id is required", ErrValidation)
	}
	if unitPrice <= 0 {
		return fmt.Errorf("%w: unit price must be greater than zero", ErrValidation)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}

	for i := range b.items {
		if b.items[i].CatalogItemID == itemID {
			b.items[i].Quantity += quantity
			b.updatedAt = now.UTC()
			return nil
		}
	}

	b.items = append(b.items, BasketItem{
		CatalogItemID: itemID,
		UnitPrice:     unitPrice,
		Quantity:      quantity,
	})
	b.updatedAt = now.UTC()
	return nil
}

// SetItemQuantity overwrites the quantity of an existing line. Zero marks the
// line for removal by RemoveEmptyItems; negative values are rejected.
func (b *Basket) SetItemQuantity(catalogItemID string, quantity int, now time.Time) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	itemID := strings.TrimSpace(catalogItemID)
	for i := range b.items {
		if b.items[i].CatalogItemID == itemID {
			b.items[i].Quantity = quantity
			b.updatedAt = now.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: basket has no line for catalog item %q", ErrValidation, itemID)
}

// RemoveEmptyItems drops every line whose quantity is zero. Idempotent.
func (b *Basket) RemoveEmptyItems(now time.Time) {
	kept := b.items[:0]
	removed := false
	for _, item := range b.items {
		if item.Quantity == 0 {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	b.items = kept
	if removed {
		b.updatedAt = now.UTC()
	}
}

// SetNewBuyerID reassigns basket ownership, used when an anonymous basket is
// transferred to an authenticated user.
func (b *Basket) SetNewBuyerID(buyerID string, now time.Time) error {
	buyer := strings.TrimSpace(buyerID)
	if buyer == "" {
		return fmt.Errorf("%w: buyer id is required", ErrValidation)
	}
	b.buyerID = buyer
	b.updatedAt = now.UTC()
	return nil
}
