package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/repositories"
	"github.com/craftmarket/api/internal/specification"
)

var (
	errBasketRepositoryRequired = errors.New("basket service: basket repository is required")
	errBasketCatalogRequired    = errors.New("basket service: catalog reader is required")
	errBasketClockRequired      = errors.New("basket service: clock is required")
)

// ErrBasketInvalidInput indicates the caller supplied invalid input.
var ErrBasketInvalidInput = errors.New("basket service: invalid input")

// ErrBasketNotFound indicates the requested basket does not exist.
var ErrBasketNotFound = errors.New("basket service: not found")

// ErrBasketUnavailable indicates the basket service cannot fulfil the request
// due to missing dependencies or backend issues.
var ErrBasketUnavailable = errors.New("basket service: unavailable")

// BasketServiceDeps wires the repository and catalog dependencies for basket
// operations.
type BasketServiceDeps struct {
	Baskets     repositories.Repository[*domain.Basket]
	Catalog     repositories.CatalogReader
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type basketService struct {
	baskets repositories.Repository[*domain.Basket]
	catalog repositories.CatalogReader
	newID   func() string
	now     func() time.Time
	logger  func(context.Context, string, map[string]any)
}

// NewBasketService constructs a BasketService enforcing dependency
// validation.
func NewBasketService(deps BasketServiceDeps) (BasketService, error) {
	if deps.Baskets == nil {
		return nil, errBasketRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errBasketCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errBasketClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &basketService{
		baskets: deps.Baskets,
		catalog: deps.Catalog,
		newID:   idGen,
		now:     func() time.Time { return deps.Clock().UTC() },
		logger:  logger,
	}, nil
}

func (s *basketService) GetBasket(ctx context.Context, buyerID string) (*domain.Basket, error) {
	if s == nil || s.baskets == nil {
		return nil, ErrBasketUnavailable
	}
	buyer := strings.TrimSpace(buyerID)
	if buyer == "" {
		return nil, ErrBasketInvalidInput
	}

	basket, err := s.baskets.FirstMatching(ctx, specification.BasketWithItemsByBuyer(buyer))
	if err != nil {
		if isRepoNotFound(err) {
			return nil, fmt.Errorf("%w: no basket for buyer %q", ErrBasketNotFound, buyer)
		}
		return nil, translateRepoError(err, ErrBasketUnavailable)
	}
	return basket, nil
}

func (s *basketService) AddItemToBasket(ctx context.Context, cmd AddBasketItemCommand) (*domain.Basket, error) {
	if s == nil || s.baskets == nil {
		return nil, ErrBasketUnavailable
	}

	buyer := strings.TrimSpace(cmd.BuyerID)
	itemID := strings.TrimSpace(cmd.CatalogItemID)
	if buyer == "" || itemID == "" {
		return nil, ErrBasketInvalidInput
	}
	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrBasketInvalidInput)
	}

	unitPrice := cmd.UnitPrice
	if unitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrBasketInvalidInput)
	}
	if unitPrice == 0 {
		// Caller did not capture a price; use the live catalog price.
		rows, err := s.catalog.ListByIDs(ctx, []string{itemID})
		if err != nil {
			return nil, translateRepoError(err, ErrBasketUnavailable)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: catalog item %q not found", ErrBasketInvalidInput, itemID)
		}
		unitPrice = rows[0].Price
	}

	created := false
	basket, err := s.baskets.FirstMatching(ctx, specification.BasketWithItemsByBuyer(buyer))
	if err != nil {
		if !isRepoNotFound(err) {
			return nil, translateRepoError(err, ErrBasketUnavailable)
		}
		basket, err = domain.NewBasket(s.basketID(), buyer, s.now())
		if err != nil {
			return nil, err
		}
		created = true
	}

	if err := basket.AddItem(itemID, unitPrice, quantity, s.now()); err != nil {
		return nil, err
	}

	if created {
		err = s.baskets.Add(ctx, basket)
	} else {
		err = s.baskets.Update(ctx, basket)
	}
	if err != nil {
		return nil, translateRepoError(err, ErrBasketUnavailable)
	}

	s.logger(ctx, "basket.item_added", map[string]any{
		"basketId":      basket.ID(),
		"catalogItemId": itemID,
		"quantity":      quantity,
		"created":       created,
	})
	return basket, nil
}

func (s *basketService) SetQuantities(ctx context.Context, cmd SetQuantitiesCommand) (*domain.Basket, error) {
	if s == nil || s.baskets == nil {
		return nil, ErrBasketUnavailable
	}
	basketID := strings.TrimSpace(cmd.BasketID)
	if basketID == "" || len(cmd.Quantities) == 0 {
		return nil, ErrBasketInvalidInput
	}

	basket, err := s.baskets.GetByID(ctx, basketID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, fmt.Errorf("%w: basket %q", ErrBasketNotFound, basketID)
		}
		return nil, translateRepoError(err, ErrBasketUnavailable)
	}

	// Apply in a stable order so validation failures are deterministic.
	itemIDs := make([]string, 0, len(cmd.Quantities))
	for itemID := range cmd.Quantities {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	for _, itemID := range itemIDs {
		if err := basket.SetItemQuantity(itemID, cmd.Quantities[itemID], s.now()); err != nil {
			return nil, err
		}
	}
	basket.RemoveEmptyItems(s.now())

	if err := s.baskets.Update(ctx, basket); err != nil {
		return nil, translateRepoError(err, ErrBasketUnavailable)
	}

	s.logger(ctx, "basket.quantities_updated", map[string]any{
		"basketId": basket.ID(),
		"lines":    len(cmd.Quantities),
	})
	return basket, nil
}

func (s *basketService) DeleteBasket(ctx context.Context, basketID string) error {
	if s == nil || s.baskets == nil {
		return ErrBasketUnavailable
	}
	id := strings.TrimSpace(basketID)
	if id == "" {
		return ErrBasketInvalidInput
	}

	basket, err := s.baskets.GetByID(ctx, id)
	if err != nil {
		if isRepoNotFound(err) {
			return fmt.Errorf("%w: basket %q", ErrBasketNotFound, id)
		}
		return translateRepoError(err, ErrBasketUnavailable)
	}

	if err := s.baskets.Delete(ctx, basket); err != nil {
		return translateRepoError(err, ErrBasketUnavailable)
	}

	s.logger(ctx, "basket.deleted", map[string]any{"basketId": id})
	return nil
}

func (s *basketService) TransferBasket(ctx context.Context, cmd TransferBasketCommand) error {
	if s == nil || s.baskets == nil {
		return ErrBasketUnavailable
	}
	anonymousID := strings.TrimSpace(cmd.AnonymousBuyerID)
	userID := strings.TrimSpace(cmd.UserID)
	if anonymousID == "" || userID == "" {
		return ErrBasketInvalidInput
	}

	basket, err := s.baskets.FirstMatching(ctx, specification.BasketWithItemsByBuyer(anonymousID))
	if err != nil {
		if isRepoNotFound(err) {
			// Nothing to transfer.
			return nil
		}
		return translateRepoError(err, ErrBasketUnavailable)
	}

	if err := basket.SetNewBuyerID(userID, s.now()); err != nil {
		return err
	}
	if err := s.baskets.Update(ctx, basket); err != nil {
		return translateRepoError(err, ErrBasketUnavailable)
	}

	s.logger(ctx, "basket.transferred", map[string]any{
		"basketId": basket.ID(),
		"buyerId":  userID,
	})
	return nil
}

func (s *basketService) basketID() string {
	return "bsk_" + s.newID()
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

// translateRepoError keeps the persistence error in the chain while tagging
// it with the service-level sentinel.
func translateRepoError(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
