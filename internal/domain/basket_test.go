package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBasketAddItemConsolidatesLines(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	basket, err := NewBasket("bsk_1", "alice", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := basket.AddItem("item-5", 1000, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := basket.AddItem("item-5", 1000, 2, now.Add(time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := basket.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 consolidated line, got %d", len(items))
	}
	if items[0].CatalogItemID != "item-5" || items[0].Quantity != 3 {
		t.Fatalf("unexpected line %#v", items[0])
	}
	if items[0].UnitPrice != 1000 {
		t.Fatalf("expected captured unit price 1000, got %d", items[0].UnitPrice)
	}
}

func TestBasketAddItemKeepsFirstCapturedPrice(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "alice", now)

	if err := basket.AddItem("item-5", 1000, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Catalog price moved between adds; the line keeps the price the buyer saw.
	if err := basket.AddItem("item-5", 1200, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := basket.Items()
	if items[0].UnitPrice != 1000 {
		t.Fatalf("expected unit price 1000, got %d", items[0].UnitPrice)
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestBasketAddItemRejectsInvalidInput(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "alice", now)

	if err := basket.AddItem("item-1", 0, 1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}
	if err := basket.AddItem("item-1", -100, 1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	if err := basket.AddItem("item-1", 100, 0, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if err := basket.AddItem("", 100, 1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty catalog item id, got %v", err)
	}
	if !basket.IsEmpty() {
		t.Fatalf("rejected adds must not mutate the basket")
	}
}

func TestBasketRemoveEmptyItems(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "alice", now)
	_ = basket.AddItem("item-5", 1000, 2, now)
	_ = basket.AddItem("item-7", 550, 1, now)

	if err := basket.SetItemQuantity("item-5", 0, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	basket.RemoveEmptyItems(now)

	items := basket.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 remaining line, got %d", len(items))
	}
	if items[0].CatalogItemID != "item-7" {
		t.Fatalf("expected item-7 to survive, got %q", items[0].CatalogItemID)
	}

	// Second pass is a no-op.
	basket.RemoveEmptyItems(now)
	if len(basket.Items()) != 1 {
		t.Fatalf("RemoveEmptyItems must be idempotent")
	}
}

func TestBasketSetItemQuantityRejectsNegativeAndUnknown(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "alice", now)
	_ = basket.AddItem("item-5", 1000, 2, now)

	if err := basket.SetItemQuantity("item-5", -1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}
	if err := basket.SetItemQuantity("item-9", 1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown line, got %v", err)
	}
}

func TestBasketSetNewBuyerID(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "anon-123", now)

	if err := basket.SetNewBuyerID("  ", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty buyer, got %v", err)
	}
	if err := basket.SetNewBuyerID("alice", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if basket.BuyerID() != "alice" {
		t.Fatalf("expected buyer alice, got %q", basket.BuyerID())
	}
}

func TestBasketItemsReturnsDefensiveCopy(t *testing.T) {
	now := time.Now().UTC()
	basket, _ := NewBasket("bsk_1", "alice", now)
	_ = basket.AddItem("item-5", 1000, 2, now)

	view := basket.Items()
	view[0].Quantity = 99

	if got := basket.Items()[0].Quantity; got != 2 {
		t.Fatalf("mutating the returned slice must not affect the basket, got quantity %d", got)
	}
}

func TestNewBasketRequiresBuyer(t *testing.T) {
	if _, err := NewBasket("bsk_1", "", time.Now()); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
