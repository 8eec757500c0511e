// Package storetest holds behaviour tests shared by every store.Repository
// implementation.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"budgetai/internal/core"
	"budgetai/internal/store"
)

// Run exercises repo against the persistence contract.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Run("config round trip is a shallow merge", func(t *testing.T) { testConfigMerge(t, newRepo(t)) })
	t.Run("missing documents", func(t *testing.T) { testMissing(t, newRepo(t)) })
	t.Run("profile merge", func(t *testing.T) { testProfileMerge(t, newRepo(t)) })
	t.Run("cart replace", func(t *testing.T) { testCartReplace(t, newRepo(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("reset tokens", func(t *testing.T) { testResetTokens(t, newRepo(t)) })
}

func testConfigMerge(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	full := core.BudgetConfig{
		Salary:      core.Cent(25000, 0),
		People:      4,
		SavingsGoal: core.Cent(3000, 0),
		Categories:  map[string]core.Money{"rent": core.Cent(8000, 0), "food": core.Cent(6000, 0)},
		UsualItems:  []core.UsualItem{{ID: "u1", Name: "Bread Brown", Brand: "Sasko", Category: "food", CurrentPrice: core.Cent(18, 99)}},
		FoodPreferences: core.FoodPreferences{
			Proteins: []string{"chicken"}, Vegetables: []string{"onions"}, Grains: []string{"rice"},
		},
	}
	if err := repo.SaveConfig(ctx, "u", core.FullConfigPatch(full)); err != nil {
		t.Fatalf("SaveConfig full: %v", err)
	}
	salary := core.Cent(30000, 0)
	patch := core.ConfigPatch{Salary: &salary, Categories: map[string]core.Money{"food": core.Cent(5000, 0)}}
	if err := repo.SaveConfig(ctx, "u", patch); err != nil {
		t.Fatalf("SaveConfig patch: %v", err)
	}
	got, err := repo.GetConfig(ctx, "u")
	if err != nil || got == nil {
		t.Fatalf("GetConfig: %v %v", got, err)
	}
	want := core.MergeConfig(full, patch)
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", *got, want)
	}
}

func testMissing(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	if cfg, err := repo.GetConfig(ctx, "nobody"); err != nil || cfg != nil {
		t.Fatalf("expected nil config, got %v %v", cfg, err)
	}
	if p, err := repo.GetProfile(ctx, "nobody"); err != nil || p != nil {
		t.Fatalf("expected nil profile, got %v %v", p, err)
	}
	if items, err := repo.GetCart(ctx, "nobody"); err != nil || len(items) != 0 {
		t.Fatalf("expected empty cart, got %v %v", items, err)
	}
}

func testProfileMerge(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	p := core.Profile{
		Name: "Demo",
		Locations: []core.Location{
			{ID: "a", Name: "Home", City: "Benoni", Province: "Gauteng", IsPrimary: true, IsActive: true,
				Coordinates: core.Coordinates{Lat: -26.1885, Lng: 28.3207}},
		},
		ActiveLocationID: "a",
	}
	if err := repo.SaveProfile(ctx, "u", core.FullProfilePatch(p)); err != nil {
		t.Fatal(err)
	}
	name := "Renamed"
	if err := repo.SaveProfile(ctx, "u", core.ProfilePatch{Name: &name}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetProfile(ctx, "u")
	if err != nil || got == nil {
		t.Fatalf("GetProfile: %v %v", got, err)
	}
	p.Name = "Renamed"
	if !reflect.DeepEqual(*got, p) {
		t.Fatalf("profile mismatch\n got: %+v\nwant: %+v", *got, p)
	}
}

func testCartReplace(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	items := []core.CartItem{
		{ID: "c1", Name: "Bread", Price: core.Cent(16, 14), Store: "Spar", Quantity: 2, Category: "food"},
		{ID: "c2", Name: "Panado", Price: core.Cent(29, 99), Store: "Clicks", Quantity: 1, Checked: true, Category: "medication"},
	}
	if err := repo.SaveCart(ctx, "u", items); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveCart(ctx, "u", items[1:]); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetCart(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, items[1:]) {
		t.Fatalf("cart mismatch: %+v", got)
	}
}

func testUsers(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	u := core.User{ID: "u1", Email: "Demo@Example.com", Name: "Demo", PasswordHash: "h1", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, core.User{ID: "u2", Email: "demo@example.com"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, "DEMO@example.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("GetUserByEmail: %+v %v", got, err)
	}
	if err := repo.UpdatePasswordHash(ctx, "u1", "h2"); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetUserByID(ctx, "u1")
	if err != nil || got.PasswordHash != "h2" {
		t.Fatalf("GetUserByID: %+v %v", got, err)
	}
	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testResetTokens(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	tok := store.ResetToken{TokenHash: "abc", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	if err := repo.SaveResetToken(ctx, tok); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetResetToken(ctx, "abc")
	if err != nil || got.UserID != "u1" || !got.ExpiresAt.Equal(tok.ExpiresAt) {
		t.Fatalf("GetResetToken: %+v %v", got, err)
	}
	if err := repo.DeleteResetToken(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetResetToken(ctx, "abc"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
