package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/craftmarket/api/internal/domain"
	"github.com/craftmarket/api/internal/repositories"
	"github.com/craftmarket/api/internal/specification"
)

func newBasket(t *testing.T, id, buyer string) *domain.Basket {
	t.Helper()
	basket, err := domain.NewBasket(id, buyer, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return basket
}

func TestRepositoryAddGetDelete(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Baskets()

	basket := newBasket(t, "bsk_1", "alice")
	if err := repo.Add(ctx, basket); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := repo.GetByID(ctx, "bsk_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.BuyerID() != "alice" {
		t.Fatalf("expected buyer alice, got %q", loaded.BuyerID())
	}

	if err := repo.Add(ctx, basket); err == nil {
		t.Fatalf("expected conflict on duplicate add")
	} else {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsConflict() {
			t.Fatalf("expected conflict classification, got %v", err)
		}
	}

	if err := repo.Delete(ctx, basket); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "bsk_1"); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestRepositoryReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Baskets()

	basket := newBasket(t, "bsk_1", "alice")
	_ = basket.AddItem("item-1", 1000, 1, time.Now().UTC())
	if err := repo.Add(ctx, basket); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's aggregate after Add must not leak into the store.
	_ = basket.AddItem("item-1", 1000, 5, time.Now().UTC())

	loaded, err := repo.GetByID(ctx, "bsk_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loaded.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected stored quantity 1, got %d", got)
	}
}

func TestRepositoryFirstMatchingBySpecification(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Baskets()

	_ = repo.Add(ctx, newBasket(t, "bsk_1", "alice"))
	_ = repo.Add(ctx, newBasket(t, "bsk_2", "bob"))

	found, err := repo.FirstMatching(ctx, specification.BasketWithItemsByBuyer("bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID() != "bsk_2" {
		t.Fatalf("expected bsk_2, got %q", found.ID())
	}

	_, err = repo.FirstMatching(ctx, specification.BasketWithItemsByBuyer("carol"))
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		t.Fatalf("expected not found classification, got %v", err)
	}
}

func TestRepositoryCountAndDeleteMany(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Baskets()

	_ = repo.Add(ctx, newBasket(t, "bsk_1", "alice"))
	_ = repo.Add(ctx, newBasket(t, "bsk_2", "alice"))
	_ = repo.Add(ctx, newBasket(t, "bsk_3", "bob"))

	count, err := repo.Count(ctx, specification.BasketWithItemsByBuyer("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 baskets, got %d", count)
	}

	if err := repo.DeleteMany(ctx, specification.BasketWithItemsByBuyer("alice")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remaining, err := repo.Count(ctx, specification.New[*domain.Basket]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining basket, got %d", remaining)
	}
}

func TestRepositoryOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Orders()

	addr, _ := domain.NewAddress("1 Main St", "Springfield", "", "US", "62701")
	items := []domain.OrderItem{{Snapshot: domain.ProductSnapshot{CatalogItemID: "item-1"}, UnitPrice: 100, Quantity: 1}}

	older, _ := domain.NewOrder("ord_1", "alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), addr, items)
	newer, _ := domain.NewOrder("ord_2", "alice", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), addr, items)
	_ = repo.Add(ctx, older)
	_ = repo.Add(ctx, newer)

	orders, err := repo.List(ctx, specification.OrdersByBuyer("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID() != "ord_2" {
		t.Fatalf("expected newest order first, got %q", orders[0].ID())
	}
}

func TestRepositoryWindow(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	repo := registry.Baskets()

	_ = repo.Add(ctx, newBasket(t, "bsk_1", "alice"))
	_ = repo.Add(ctx, newBasket(t, "bsk_2", "alice"))
	_ = repo.Add(ctx, newBasket(t, "bsk_3", "alice"))

	page, err := repo.List(ctx, specification.BasketWithItemsByBuyer("alice").Page(1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID() != "bsk_2" {
		t.Fatalf("expected the middle basket, got %v", page)
	}
}

func TestRepositoryHonoursCancelledContext(t *testing.T) {
	registry := NewRegistry()
	repo := registry.Baskets()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.GetByID(ctx, "bsk_1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCatalogStoreListByIDs(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	store.Put(
		domain.CatalogItem{ID: "item-1", Name: "Mug", Price: 1000},
		domain.CatalogItem{ID: "item-2", Name: "Shirt", Price: 550},
	)

	rows, err := store.ListByIDs(ctx, []string{"item-1", "item-9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "item-1" {
		t.Fatalf("expected only item-1, got %v", rows)
	}
}
