package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderItem is an immutable order line. Price and quantity come from the
// basket line the buyer confirmed; the snapshot carries the catalog display
// data current at order time.
type OrderItem struct {
	Snapshot  ProductSnapshot
	UnitPrice int64
	Quantity  int
}

// Total returns the line total.
func (i OrderItem) Total() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Order is a placed order. It is immutable after construction: no method
// alters the buyer, address, or item collection.
type Order struct {
	id        string
	buyerID   string
	orderDate time.Time
	shipTo    Address
	items     []OrderItem
}

// NewOrder constructs a placed order. The buyer must be an authenticated
// identity, the ship-to address must be present, and at least one item is
// required.
func NewOrder(id, buyerID string, orderDate time.Time, shipTo Address, items []OrderItem) (*Order, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	buyer := strings.TrimSpace(buyerID)
	if buyer == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrValidation)
	}
	if shipTo.IsZero() {
		return nil, fmt.Errorf("%w: ship-to address is required", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	dup := make([]OrderItem, len(items))
	copy(dup, items)
	return &Order{
		id:        trimmedID,
		buyerID:   buyer,
		orderDate: orderDate.UTC(),
		shipTo:    shipTo,
		items:     dup,
	}, nil
}

// RehydrateOrder reconstructs an order from persisted state.
func RehydrateOrder(id, buyerID string, orderDate time.Time, shipTo Address, items []OrderItem) *Order {
	dup := make([]OrderItem, len(items))
	copy(dup, items)
	return &Order{
		id:        strings.TrimSpace(id),
		buyerID:   strings.TrimSpace(buyerID),
		orderDate: orderDate.UTC(),
		shipTo:    shipTo,
		items:     dup,
	}
}

// ID returns the order identifier.
func (o *Order) ID() string { return o.id }

// BuyerID returns the authenticated buyer the order belongs to.
func (o *Order) BuyerID() string { return o.buyerID }

// OrderDate returns the placement timestamp.
func (o *Order) OrderDate() time.Time { return o.orderDate }

// ShipToAddress returns the shipping address value object.
func (o *Order) ShipToAddress() Address { return o.shipTo }

// Items returns a copy of the order lines.
func (o *Order) Items() []OrderItem {
	dup := make([]OrderItem, len(o.items))
	copy(dup, o.items)
	return dup
}

// Total recomputes the order total on every call. It is never stored.
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.items {
		total += item.Total()
	}
	return total
}
