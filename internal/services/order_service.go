package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/repositories"
	"github.com/craftmarket/api/internal/specification"
)

var (
	errOrderBasketsRequired = errors.New("order service: basket repository is required")
	errOrderOrdersRequired  = errors.New("order service: order repository is required")
	errOrderCatalogRequired = errors.New("order service: catalog reader is required")
	errOrderClockRequired   = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the requested order does not exist.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderUnavailable indicates the order service cannot fulfil the request
// due to missing dependencies or backend issues.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// OrderServiceDeps wires the repositories, catalog, and event publishing
// dependencies for order operations. UnitOfWork and Publisher are optional.
type OrderServiceDeps struct {
	Baskets     repositories.Repository[*domain.Basket]
	Orders      repositories.Repository[*domain.Order]
	Catalog     repositories.CatalogReader
	UnitOfWork  repositories.UnitOfWork
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type orderService struct {
	baskets   repositories.Repository[*domain.Basket]
	orders    repositories.Repository[*domain.Order]
	catalog   repositories.CatalogReader
	uow       repositories.UnitOfWork
	publisher OrderEventPublisher
	newID     func() string
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Baskets == nil {
		return nil, errOrderBasketsRequired
	}
	if deps.Orders == nil {
		return nil, errOrderOrdersRequired
	}
	if deps.Catalog == nil {
		return nil, errOrderCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &orderService{
		baskets:   deps.Baskets,
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		uow:       deps.UnitOfWork,
		publisher: deps.Publisher,
		newID:     idGen,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
	}, nil
}

// CreateOrder snapshots the basket into an immutable order. The line price
// and quantity are frozen from the basket; the display name and image come
// from the current catalog record. A line whose catalog item no longer exists
// fails the whole order. The basket is not cleared afterwards.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if s == nil || s.orders == nil {
		return nil, ErrOrderUnavailable
	}
	basketID := strings.TrimSpace(cmd.BasketID)
	if basketID == "" {
		return nil, ErrOrderInvalidInput
	}

	basket, err := s.baskets.FirstMatching(ctx, specification.BasketWithItemsByID(basketID))
	if err != nil {
		if isRepoNotFound(err) {
			return nil, fmt.Errorf("%w: basket %q", ErrOrderNotFound, basketID)
		}
		return nil, translateRepoError(err, ErrOrderUnavailable)
	}

	lines := basket.Items()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cannot checkout an empty basket", domain.ErrValidation)
	}

	catalogIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.CatalogItemID]; ok {
			continue
		}
		seen[line.CatalogItemID] = struct{}{}
		catalogIDs = append(catalogIDs, line.CatalogItemID)
	}

	rows, err := s.catalog.ListByIDs(ctx, catalogIDs)
	if err != nil {
		return nil, translateRepoError(err, ErrOrderUnavailable)
	}
	byID := make(map[string]domain.CatalogItem, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		row, ok := byID[line.CatalogItemID]
		if !ok {
			return nil, fmt.Errorf("%w: catalog item %q no longer exists", domain.ErrValidation, line.CatalogItemID)
		}
		items = append(items, domain.OrderItem{
			Snapshot: domain.ProductSnapshot{
				CatalogItemID: row.ID,
				Name:          row.Name,
				ImageURI:      row.ImageURI,
			},
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	order, err := domain.NewOrder(s.orderID(), basket.BuyerID(), s.now(), cmd.ShipTo, items)
	if err != nil {
		return nil, err
	}

	persist := func(ctx context.Context) error {
		return s.orders.Add(ctx, order)
	}
	if s.uow != nil {
		err = s.uow.RunInTx(ctx, persist)
	} else {
		err = persist(ctx)
	}
	if err != nil {
		return nil, translateRepoError(err, ErrOrderUnavailable)
	}

	s.logger(ctx, "order.created", map[string]any{
		"orderId":  order.ID(),
		"buyerId":  order.BuyerID(),
		"basketId": basket.ID(),
		"total":    order.Total(),
	})
	s.publishOrderCreated(ctx, order)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if s == nil || s.orders == nil {
		return nil, ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, ErrOrderInvalidInput
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, fmt.Errorf("%w: order %q", ErrOrderNotFound, id)
		}
		return nil, translateRepoError(err, ErrOrderUnavailable)
	}
	return order, nil
}

func (s *orderService) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	if s == nil || s.orders == nil {
		return nil, ErrOrderUnavailable
	}
	buyer := strings.TrimSpace(buyerID)
	if buyer == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.orders.List(ctx, specification.OrdersByBuyer(buyer))
	if err != nil {
		return nil, translateRepoError(err, ErrOrderUnavailable)
	}
	return orders, nil
}

// publishOrderCreated is best effort; a delivery failure never rolls back the
// persisted order.
func (s *orderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	message := OrderCreatedMessage{
		OrderID:   order.ID(),
		BuyerID:   order.BuyerID(),
		Total:     order.Total(),
		ItemCount: len(order.Items()),
		OrderDate: order.OrderDate(),
	}
	if _, err := s.publisher.PublishOrderCreated(ctx, message); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"orderId": order.ID(),
			"error":   err.Error(),
		})
	}
}

func (s *orderService) orderID() string {
	return "ord_" + s.newID()
}
