package handlers

import (
	"context"
	"encoding/json"
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

const maxBasketBodySize = 16 * 1024

// BasketHandlers exposes the buyer-scoped basket endpoints. Anonymous buyers
// are served as long as they carry the anonymous identity header.
type BasketHandlers struct {
	baskets services.BasketService
}

// NewBasketHandlers constructs handlers over the basket workflow service.
func NewBasketHandlers(baskets services.BasketService) *BasketHandlers {
	return &BasketHandlers{baskets: baskets}
}

// Routes wires the /basket endpoints onto the provided router.
func (h *BasketHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(auth.RequireIdentity)
	r.Get("/", h.getBasket)
	r.Delete("/", h.deleteBasket)
	r.Post("/items", h.addItem)
	r.Put("/items", h.setQuantities)
	r.With(auth.RequireAuthenticated).Post("/transfer", h.transferBasket)
}

func (h *BasketHandlers) getBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	basket, err := h.baskets.GetBasket(ctx, identity.BuyerID)
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBasketPayload(basket))
}

type addBasketItemRequest struct {
	CatalogItemID string `json:"catalogItemId"`
	UnitPrice     int64  `json:"unitPrice"`
	Quantity      int    `json:"quantity"`
}

func (h *BasketHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req addBasketItemRequest
	if !decodeBasketBody(ctx, w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CatalogItemID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "catalogItemId is required", http.StatusBadRequest))
		return
	}

	basket, err := h.baskets.AddItemToBasket(ctx, services.AddBasketItemCommand{
		BuyerID:       identity.BuyerID,
		CatalogItemID: req.CatalogItemID,
		UnitPrice:     req.UnitPrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBasketPayload(basket))
}

type setQuantitiesRequest struct {
	Quantities map[string]int `json:"quantities"`
}

func (h *BasketHandlers) setQuantities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req setQuantitiesRequest
	if !decodeBasketBody(ctx, w, r, &req) {
		return
	}
	if len(req.Quantities) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantities must not be empty", http.StatusBadRequest))
		return
	}

	basket, err := h.baskets.GetBasket(ctx, identity.BuyerID)
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}

	updated, err := h.baskets.SetQuantities(ctx, services.SetQuantitiesCommand{
		BasketID:   basket.ID(),
		Quantities: req.Quantities,
	})
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBasketPayload(updated))
}

func (h *BasketHandlers) deleteBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	basket, err := h.baskets.GetBasket(ctx, identity.BuyerID)
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	if err := h.baskets.DeleteBasket(ctx, basket.ID()); err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferBasketRequest struct {
	AnonymousID string `json:"anonymousId"`
}

func (h *BasketHandlers) transferBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req transferBasketRequest
	if !decodeBasketBody(ctx, w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AnonymousID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "anonymousId is required", http.StatusBadRequest))
		return
	}

	err := h.baskets.TransferBasket(ctx, services.TransferBasketCommand{
		AnonymousBuyerID: req.AnonymousID,
		UserID:           identity.BuyerID,
	})
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BasketHandlers) requireService(ctx context.Context, w http.ResponseWriter) (auth.Identity, bool) {
	if h == nil || h.baskets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("basket_service_unavailable", "basket service is unavailable", http.StatusServiceUnavailable))
		return auth.Identity{}, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "buyer identity is required", http.StatusUnauthorized))
		return auth.Identity{}, false
	}
	return identity, true
}

func decodeBasketBody(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxBasketBodySize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		} else {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if len(body) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeBasketError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBasketInvalidInput), errors.Is(err, domain.ErrValidation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBasketNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("basket_not_found", "basket not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBasketUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("basket_service_unavailable", "basket service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("basket_error", "basket operation failed", http.StatusInternalServerError))
	}
}

type basketPayload struct {
	ID         string              `json:"id"`
	BuyerID    string              `json:"buyerId"`
	Items      []basketItemPayload `json:"items"`
	TotalItems int                 `json:"totalItems"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

type basketItemPayload struct {
	CatalogItemID string `json:"catalogItemId"`
	UnitPrice     int64  `json:"unitPrice"`
	Quantity      int    `json:"quantity"`
}

func buildBasketPayload(basket *domain.Basket) basketPayload {
	items := basket.Items()
	payload := basketPayload{
		ID:         basket.ID(),
		BuyerID:    basket.BuyerID(),
		Items:      make([]basketItemPayload, 0, len(items)),
		TotalItems: basket.TotalItems(),
		CreatedAt:  basket.CreatedAt(),
		UpdatedAt:  basket.UpdatedAt(),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, basketItemPayload{
			CatalogItemID: item.CatalogItemID,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return payload
}
