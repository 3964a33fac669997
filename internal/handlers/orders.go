package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/platform/auth"
	"github.com/craftmarket/api/internal/platform/httpx"
	"github.com/craftmarket/api/internal/services"
)

// OrderHandlers exposes the order endpoints. Orders always require an
// authenticated buyer; anonymous identities check out only after transferring
// their basket.
type OrderHandlers struct {
	baskets services.BasketService
	orders  services.OrderService
}

// NewOrderHandlers constructs handlers over the order workflow service.
func NewOrderHandlers(baskets services.BasketService, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{baskets: baskets, orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(auth.RequireAuthenticated)
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
}

type createOrderRequest struct {
	ShipTo addressPayload `json:"shipTo"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req createOrderRequest
	if !decodeBasketBody(ctx, w, r, &req) {
		return
	}

	shipTo, err := domain.NewAddress(req.ShipTo.Street, req.ShipTo.City, req.ShipTo.State, req.ShipTo.Country, req.ShipTo.PostalCode)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	basket, err := h.baskets.GetBasket(ctx, identity.BuyerID)
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		BasketID: basket.ID(),
		ShipTo:   shipTo,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+order.ID())
	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	// Buyers only ever see their own orders; leak nothing about others.
	if order.BuyerID() != identity.BuyerID {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrdersByBuyer(ctx, identity.BuyerID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := ordersResponse{Orders: make([]orderPayload, 0, len(orders))}
	for _, order := range orders {
		payload.Orders = append(payload.Orders, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) requireService(ctx context.Context, w http.ResponseWriter) (auth.Identity, bool) {
	if h == nil || h.orders == nil || h.baskets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return auth.Identity{}, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "buyer identity is required", http.StatusUnauthorized))
		return auth.Identity{}, false
	}
	return identity, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput), errors.Is(err, domain.ErrValidation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "order operation failed", http.StatusInternalServerError))
	}
}

type ordersResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	ID        string             `json:"id"`
	BuyerID   string             `json:"buyerId"`
	OrderDate time.Time          `json:"orderDate"`
	ShipTo    addressPayload     `json:"shipTo"`
	Items     []orderItemPayload `json:"items"`
	Total     int64              `json:"total"`
}

type addressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

type orderItemPayload struct {
	CatalogItemID string `json:"catalogItemId"`
	ProductName   string `json:"productName"`
	PictureURI    string `json:"pictureUri,omitempty"`
	UnitPrice     int64  `json:"unitPrice"`
	Quantity      int    `json:"quantity"`
	LineTotal     int64  `json:"lineTotal"`
}

func buildOrderPayload(order *domain.Order) orderPayload {
	items := order.Items()
	shipTo := order.ShipToAddress()
	payload := orderPayload{
		ID:        order.ID(),
		BuyerID:   order.BuyerID(),
		OrderDate: order.OrderDate(),
		ShipTo: addressPayload{
			Street:     shipTo.Street,
			City:       shipTo.City,
			State:      shipTo.State,
			Country:    shipTo.Country,
			PostalCode: shipTo.PostalCode,
		},
		Items: make([]orderItemPayload, 0, len(items)),
		Total: order.Total(),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, orderItemPayload{
			CatalogItemID: item.Snapshot.CatalogItemID,
			ProductName:   item.Snapshot.Name,
			PictureURI:    item.Snapshot.ImageURI,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.Total(),
		})
	}
	return payload
}
