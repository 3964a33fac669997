// Package services implements the basket and order workflows on top of the
// domain aggregates and the repository ports.
package services

import (
	"context"
	"time"

	"github.com/craftmarket/api/internal/domain"
)

// BasketService exposes the basket workflow operations.
type BasketService interface {
	// GetBasket loads the buyer's basket. Fails with not-found when the buyer
	// has none; it never creates one.
	GetBasket(ctx context.Context, buyerID string) (*domain.Basket, error)
	// AddItemToBasket loads the buyer's basket, creating one when absent,
	// adds or consolidates the line, and persists the result.
	AddItemToBasket(ctx context.Context, cmd AddBasketItemCommand) (*domain.Basket, error)
	// SetQuantities overwrites line quantities, removes emptied lines, and
	// persists. Fails with not-found when the basket does not exist.
	SetQuantities(ctx context.Context, cmd SetQuantitiesCommand) (*domain.Basket, error)
	// DeleteBasket removes the basket. Fails with not-found when absent.
	DeleteBasket(ctx context.Context, basketID string) error
	// TransferBasket reassigns an anonymous buyer's basket to the
	// authenticated user. Silently does nothing when the anonymous buyer has
	// no basket.
	TransferBasket(ctx context.Context, cmd TransferBasketCommand) error
}

// AddBasketItemCommand carries the input for AddItemToBasket. UnitPrice is
// the price shown to the buyer in minor currency units; when zero the current
// catalog price is used.
type AddBasketItemCommand struct {
	BuyerID       string
	CatalogItemID string
	UnitPrice     int64
	Quantity      int
}

// SetQuantitiesCommand maps catalog item IDs to their new quantities.
type SetQuantitiesCommand struct {
	BasketID   string
	Quantities map[string]int
}

// TransferBasketCommand reassigns basket ownership after sign-in.
type TransferBasketCommand struct {
	AnonymousBuyerID string
	UserID           string
}

// OrderService exposes the order workflow operations.
type OrderService interface {
	// CreateOrder snapshots the basket into an immutable order and persists
	// it. The basket itself is left untouched; clearing it is the caller's
	// responsibility.
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	// GetOrder loads a single order by ID.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	// ListOrdersByBuyer returns the buyer's orders, newest first.
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
}

// CreateOrderCommand carries the input for CreateOrder.
type CreateOrderCommand struct {
	BasketID string
	ShipTo   domain.Address
}

// OrderCreatedMessage is the payload published after an order is persisted.
type OrderCreatedMessage struct {
	OrderID   string    `json:"orderId"`
	BuyerID   string    `json:"buyerId"`
	Total     int64     `json:"total"`
	ItemCount int       `json:"itemCount"`
	OrderDate time.Time `json:"orderDate"`
}

// OrderEventPublisher publishes order lifecycle events. Implementations must
// be safe for concurrent use.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, message OrderCreatedMessage) (string, error)
}
