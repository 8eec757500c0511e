package memory

import (
	"context"
	"testing"

	"budgetai/internal/core"
	"budgetai/internal/store"
	"budgetai/internal/store/storetest"
)

func TestMemoryRepository(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Repository { return New() })
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.SaveCart(ctx, "u", []core.CartItem{{ID: "a", Quantity: 1}})
	items, _ := s.GetCart(ctx, "u")
	items[0].Quantity = 99
	again, _ := s.GetCart(ctx, "u")
	if again[0].Quantity != 1 {
		t.Fatalf("stored cart was mutated through a returned slice")
	}
}
