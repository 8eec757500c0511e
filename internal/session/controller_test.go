package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"budgetai/internal/cart"
	"budgetai/internal/core"
	"budgetai/internal/locations"
	"budgetai/internal/store/memory"
)

var errDown = errors.New("store unavailable")

// flakyStore fails every save while down is set.
type flakyStore struct {
	*memory.Store
	mu    sync.Mutex
	down  bool
	saves int
}

func (f *flakyStore) fail(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *flakyStore) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.down {
		return errDown
	}
	return nil
}

func (f *flakyStore) SaveConfig(ctx context.Context, userID string, p core.ConfigPatch) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.Store.SaveConfig(ctx, userID, p)
}

func (f *flakyStore) SaveProfile(ctx context.Context, userID string, p core.ProfilePatch) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.Store.SaveProfile(ctx, userID, p)
}

func (f *flakyStore) SaveCart(ctx context.Context, userID string, items []core.CartItem) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.Store.SaveCart(ctx, userID, items)
}

type fakeSearcher struct {
	results []core.SearchResult
	gotLocs []core.Location
	active  string
}

func (s *fakeSearcher) Search(_ context.Context, query string, locs []core.Location, activeID string) ([]core.SearchResult, error) {
	if query == "" {
		return nil, core.Invalid("query", "required")
	}
	s.gotLocs, s.active = locs, activeID
	return s.results, nil
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func start(t *testing.T, opts ...Option) (*Controller, *flakyStore) {
	t.Helper()
	st := &flakyStore{Store: memory.New()}
	opts = append([]Option{WithIDs(seqIDs()), WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := Start(context.Background(), "u1", st, opts...)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return c, st
}

func form(name string) locations.Form {
	return locations.Form{Name: name, City: "Benoni", Province: "Gauteng", Country: "South Africa"}
}

func TestStartEmptyUser(t *testing.T) {
	c, _ := start(t)
	if c.State() != StateReady {
		t.Fatalf("expected ready, got %s", c.State())
	}
	if cfg := c.Config(); cfg.People != 1 || cfg.Salary.Cents != 0 {
		t.Fatalf("unexpected empty config: %+v", cfg)
	}
	if _, ok := c.ActiveLocation(); ok {
		t.Fatal("expected no active location")
	}
	if len(c.Cart()) != 0 {
		t.Fatal("expected empty cart")
	}
}

func TestStartLoadsStoredDocuments(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	cfg := core.EmptyConfig()
	cfg.Salary = core.Cent(25000, 0)
	if err := st.SaveConfig(ctx, "u1", core.FullConfigPatch(cfg)); err != nil {
		t.Fatal(err)
	}
	items := []core.CartItem{{ID: "c1", Name: "Milk", Price: core.Cent(24, 99), Quantity: 2}}
	if err := st.SaveCart(ctx, "u1", items); err != nil {
		t.Fatal(err)
	}

	c, err := Start(ctx, "u1", st)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Config().Salary.String(); got != "25000.00" {
		t.Fatalf("expected salary 25000.00, got %s", got)
	}
	if got := c.CartTotals().Total.String(); got != "49.98" {
		t.Fatalf("expected total 49.98, got %s", got)
	}
}

func TestLocationLifecycle(t *testing.T) {
	ctx := context.Background()
	c, st := start(t)

	home, err := c.AddLocation(ctx, form("Home"))
	if err != nil {
		t.Fatal(err)
	}
	work, err := c.AddLocation(ctx, form("Work"))
	if err != nil {
		t.Fatal(err)
	}
	if active, _ := c.ActiveLocation(); active.ID != home.ID {
		t.Fatalf("expected first location active, got %s", active.ID)
	}
	if err := c.SwitchActiveLocation(ctx, work.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.SetPrimaryLocation(ctx, work.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteLocation(ctx, home.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteLocation(ctx, work.ID); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error deleting last location, got %v", err)
	}

	stored, err := st.GetProfile(ctx, "u1")
	if err != nil || stored == nil {
		t.Fatalf("expected stored profile, got %v %v", stored, err)
	}
	if !reflect.DeepEqual(*stored, c.Profile()) {
		t.Fatalf("stored profile diverged:\n%+v\n%+v", *stored, c.Profile())
	}
}

func TestProfileSaveKeepsName(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: memory.New()}
	if err := st.Store.SaveProfile(ctx, "u1", core.ProfilePatch{Name: ptr("Thandi")}); err != nil {
		t.Fatal(err)
	}
	c, err := Start(ctx, "u1", st)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddLocation(ctx, form("Home")); err != nil {
		t.Fatal(err)
	}
	stored, _ := st.GetProfile(ctx, "u1")
	if stored.Name != "Thandi" || len(stored.Locations) != 1 {
		t.Fatalf("unexpected stored profile: %+v", stored)
	}
}

func ptr[T any](v T) *T { return &v }

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	var failures []string
	c, st := start(t, WithSaveFailureHook(func(doc string) { failures = append(failures, doc) }))
	if _, err := c.AddLocation(ctx, form("Home")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSalary(ctx, "25000"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddToCart(ctx, core.SearchResult{Name: "Panado", Price: core.Cent(30, 0)}); err != nil {
		t.Fatal(err)
	}

	profile, cfg, items := c.Profile(), c.Config(), c.Cart()
	st.fail(true)

	ops := []struct {
		name string
		run  func() error
	}{
		{"add location", func() error { _, err := c.AddLocation(ctx, form("Work")); return err }},
		{"salary", func() error { return c.SetSalary(ctx, "1") }},
		{"people", func() error { return c.SetPeople(ctx, "7") }},
		{"category", func() error { return c.UpdateCategory(ctx, "rent", "900") }},
		{"usual item", func() error { _, err := c.AddUsualItem(ctx); return err }},
		{"usual item with fields", func() error {
			_, err := c.AddUsualItemWith(ctx, map[string]string{"name": "Panado", "currentPrice": "20"})
			return err
		}},
		{"cart add", func() error { _, err := c.AddToCart(ctx, core.SearchResult{Name: "x"}); return err }},
		{"cart clear", func() error { return c.ClearCart(ctx, func(int) bool { return true }) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			err := op.run()
			if !errors.Is(err, core.ErrPersistence) || !errors.Is(err, errDown) {
				t.Fatalf("expected persistence error, got %v", err)
			}
		})
	}

	if !reflect.DeepEqual(profile, c.Profile()) {
		t.Fatal("profile changed after failed save")
	}
	if !reflect.DeepEqual(cfg, c.Config()) {
		t.Fatal("config changed after failed save")
	}
	if !reflect.DeepEqual(items, c.Cart()) {
		t.Fatal("cart changed after failed save")
	}
	if len(failures) != len(ops) {
		t.Fatalf("expected %d failure reports, got %v", len(ops), failures)
	}

	st.fail(false)
	if err := c.SetSalary(ctx, "30000"); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestValidationErrorsSkipTheStore(t *testing.T) {
	ctx := context.Background()
	c, st := start(t)
	before := st.saves

	if _, err := c.AddLocation(ctx, locations.Form{Name: " "}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := c.SwitchActiveLocation(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := c.RemoveCartItem(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := c.ClearCart(ctx, nil); !errors.Is(err, cart.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if st.saves != before {
		t.Fatalf("expected no saves, got %d", st.saves-before)
	}
}

func TestBudgetEditsFlowIntoViews(t *testing.T) {
	ctx := context.Background()
	c, _ := start(t)

	steps := []error{
		c.SetSalary(ctx, "25000"),
		c.SetSavingsGoal(ctx, "3000"),
		c.SetPeople(ctx, "4"),
		c.UpdateCategory(ctx, "food", "6000"),
		c.UpdateCategory(ctx, "rent", "15000"),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	item, err := c.AddUsualItem(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateUsualItem(ctx, item.ID, "name", "Bread Brown"); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateUsualItem(ctx, item.ID, "currentPrice", "18.99"); err != nil {
		t.Fatal(err)
	}

	if got := c.RemainingBudget().String(); got != "1000.00" {
		t.Fatalf("expected remaining 1000.00, got %s", got)
	}
	d := c.Dashboard()
	if d.DealCount != 1 || d.WeeklyFoodBudget.String() != "1500.00" {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	deals := c.Deals()
	if len(deals) != 1 || deals[0].Price.String() != "16.14" {
		t.Fatalf("unexpected deals: %+v", deals)
	}
	if deals[0].Expires != "2026-03-05" {
		t.Fatalf("expected expiry 2026-03-05, got %s", deals[0].Expires)
	}
	if len(c.MealPlan()) != 5 {
		t.Fatal("expected a five day meal plan")
	}

	if err := c.RemoveUsualItem(ctx, item.ID); err != nil {
		t.Fatal(err)
	}
	if len(c.Deals()) != 0 {
		t.Fatal("expected deals to follow usual items")
	}
}

func TestCartFromDealsMealsAndSearch(t *testing.T) {
	ctx := context.Background()
	searcher := &fakeSearcher{results: []core.SearchResult{
		{Name: "Panado", Store: "Clicks", Price: core.Cent(25, 0), LocationID: "id-1"},
	}}
	c, _ := start(t, WithSearcher(searcher))
	if _, err := c.AddLocation(ctx, form("Home")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSalary(ctx, "1000"); err != nil {
		t.Fatal(err)
	}
	item, err := c.AddUsualItem(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateUsualItem(ctx, item.ID, "currentPrice", "10"); err != nil {
		t.Fatal(err)
	}

	results, err := c.Search(ctx, "panado")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || searcher.active != "id-1" || len(searcher.gotLocs) != 1 {
		t.Fatalf("unexpected search call: %+v active=%s", results, searcher.active)
	}
	if _, err := c.AddSearchResult(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddSearchResult(ctx, 5); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.AddDeal(ctx, "deal-0"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddDeal(ctx, "deal-9"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.AddMeal(ctx, "monday"); err != nil {
		t.Fatal(err)
	}

	items := c.Cart()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Category != "medication" || items[1].Price.String() != "8.50" || items[2].Store != "Meal plan" {
		t.Fatalf("unexpected cart: %+v", items)
	}
	groups := c.CartGroups()
	if len(groups) != 2 || groups[0].Category != "medication" {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	if err := c.SetCartQuantity(ctx, items[0].ID, "3"); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateCartItem(ctx, items[0].ID, cart.Patch{Checked: ptr(true)}); err != nil {
		t.Fatal(err)
	}
	if got := c.CartTotals().CheckedTotal.String(); got != "75.00" {
		t.Fatalf("expected checked total 75.00, got %s", got)
	}
	if err := c.ClearCart(ctx, func(n int) bool { return n == 3 }); err != nil {
		t.Fatal(err)
	}
	if len(c.Cart()) != 0 {
		t.Fatal("expected empty cart")
	}
}

func TestSearchErrorsKeepPreviousResults(t *testing.T) {
	ctx := context.Background()
	searcher := &fakeSearcher{results: []core.SearchResult{{Name: "Panado"}}}
	c, _ := start(t, WithSearcher(searcher))
	if _, err := c.Search(ctx, "panado"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Search(ctx, ""); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(c.SearchResults()) != 1 {
		t.Fatal("expected previous results to survive a failed search")
	}
}

func TestReloadDiscardsUnsavedState(t *testing.T) {
	ctx := context.Background()
	c, st := start(t)
	if err := c.SetSalary(ctx, "500"); err != nil {
		t.Fatal(err)
	}
	cfg := core.EmptyConfig()
	cfg.Salary = core.Cent(900, 0)
	if err := st.Store.SaveConfig(ctx, "u1", core.FullConfigPatch(cfg)); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Config().Salary.String(); got != "900.00" {
		t.Fatalf("expected 900.00, got %s", got)
	}
}
