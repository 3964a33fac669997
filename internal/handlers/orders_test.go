package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/platform/auth"
	"github.com/craftmarket/api/internal/services"
)

type stubOrderService struct {
	createOrder       func(ctx context.Context, cmd services.CreateOrderCommand) (*domain.Order, error)
	getOrder          func(ctx context.Context, orderID string) (*domain.Order, error)
	listOrdersByBuyer func(ctx context.Context, buyerID string) ([]*domain.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (*domain.Order, error) {
	return s.createOrder(ctx, cmd)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *stubOrderService) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return s.listOrdersByBuyer(ctx, buyerID)
}

func newOrderRouter(baskets services.BasketService, orders services.OrderService, identity *auth.Identity) chi.Router {
	r := chi.NewRouter()
	if identity != nil {
		r.Use(identityMiddleware(*identity))
	}
	r.Route("/orders", NewOrderHandlers(baskets, orders).Routes)
	return r
}

func fixtureOrder(t *testing.T, id, buyer string) *domain.Order {
	t.Helper()
	addr, err := domain.NewAddress("1 Main St", "Springfield", "IL", "US", "62701")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := []domain.OrderItem{
		{Snapshot: domain.ProductSnapshot{CatalogItemID: "item-1", Name: "Mug", ImageURI: "mug.png"}, UnitPrice: 1000, Quantity: 2},
		{Snapshot: domain.ProductSnapshot{CatalogItemID: "item-2", Name: "Shirt"}, UnitPrice: 550, Quantity: 3},
	}
	order, err := domain.NewOrder(id, buyer, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), addr, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return order
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	baskets := &stubBasketService{
		getBasket: func(context.Context, string) (*domain.Basket, error) {
			return fixtureBasket(t), nil
		},
	}
	var captured services.CreateOrderCommand
	orders := &stubOrderService{
		createOrder: func(_ context.Context, cmd services.CreateOrderCommand) (*domain.Order, error) {
			captured = cmd
			return fixtureOrder(t, "ord_1", "alice"), nil
		},
	}
	router := newOrderRouter(baskets, orders, &auth.Identity{BuyerID: "alice"})

	body := strings.NewReader(`{"shipTo":{"street":"1 Main St","city":"Springfield","state":"IL","country":"US","postalCode":"62701"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.BasketID != "bsk_1" || captured.ShipTo.City != "Springfield" {
		t.Fatalf("unexpected command %#v", captured)
	}
	if location := rec.Header().Get("Location"); !strings.HasSuffix(location, "/ord_1") {
		t.Fatalf("unexpected location header %q", location)
	}

	var payload orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.Total != 3650 || len(payload.Items) != 2 {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestCreateOrderRejectsIncompleteAddress(t *testing.T) {
	orders := &stubOrderService{
		createOrder: func(context.Context, services.CreateOrderCommand) (*domain.Order, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	router := newOrderRouter(&stubBasketService{}, orders, &auth.Identity{BuyerID: "alice"})

	body := strings.NewReader(`{"shipTo":{"street":"1 Main St"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderRequiresAuthenticatedBuyer(t *testing.T) {
	router := newOrderRouter(&stubBasketService{}, &stubOrderService{}, &auth.Identity{BuyerID: "anon-1", Anonymous: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetOrderHidesOtherBuyersOrders(t *testing.T) {
	orders := &stubOrderService{
		getOrder: func(_ context.Context, orderID string) (*domain.Order, error) {
			return fixtureOrder(t, orderID, "bob"), nil
		},
	}
	router := newOrderRouter(&stubBasketService{}, orders, &auth.Identity{BuyerID: "alice"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord_9", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign order, got %d", rec.Code)
	}
}

func TestGetOrderReturnsOwnOrder(t *testing.T) {
	orders := &stubOrderService{
		getOrder: func(_ context.Context, orderID string) (*domain.Order, error) {
			return fixtureOrder(t, orderID, "alice"), nil
		},
	}
	router := newOrderRouter(&stubBasketService{}, orders, &auth.Identity{BuyerID: "alice"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord_1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.ID != "ord_1" || payload.BuyerID != "alice" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestGetOrderNotFoundPassesThrough(t *testing.T) {
	orders := &stubOrderService{
		getOrder: func(context.Context, string) (*domain.Order, error) {
			return nil, services.ErrOrderNotFound
		},
	}
	router := newOrderRouter(&stubBasketService{}, orders, &auth.Identity{BuyerID: "alice"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord_missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListOrdersReturnsNewestFirstPayload(t *testing.T) {
	orders := &stubOrderService{
		listOrdersByBuyer: func(_ context.Context, buyerID string) ([]*domain.Order, error) {
			if buyerID != "alice" {
				t.Fatalf("expected buyer alice, got %q", buyerID)
			}
			return []*domain.Order{
				fixtureOrder(t, "ord_2", "alice"),
				fixtureOrder(t, "ord_1", "alice"),
			}, nil
		},
	}
	router := newOrderRouter(&stubBasketService{}, orders, &auth.Identity{BuyerID: "alice"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload ordersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if len(payload.Orders) != 2 || payload.Orders[0].ID != "ord_2" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestCreateOrderEmptyBasketValidation(t *testing.T) {
	baskets := &stubBasketService{
		getBasket: func(context.Context, string) (*domain.Basket, error) {
			return fixtureBasket(t), nil
		},
	}
	orders := &stubOrderService{
		createOrder: func(context.Context, services.CreateOrderCommand) (*domain.Order, error) {
			return nil, domain.ErrValidation
		},
	}
	router := newOrderRouter(baskets, orders, &auth.Identity{BuyerID: "alice"})

	body := strings.NewReader(`{"shipTo":{"street":"1 Main St","city":"Springfield","country":"US","postalCode":"62701"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
