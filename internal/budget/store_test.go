package budget

import (
	"errors"
	"fmt"
	"testing"

	"budgetai/internal/core"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func TestSettersCoerceInput(t *testing.T) {
	cases := []struct {
		name   string
		apply  func(*Store)
		check  func(core.BudgetConfig) bool
		expect string
	}{
		{"salary numeric", func(s *Store) { s.SetSalary("25000") }, func(c core.BudgetConfig) bool { return c.Salary.String() == "25000.00" }, "25000.00"},
		{"salary text", func(s *Store) { s.SetSalary("lots") }, func(c core.BudgetConfig) bool { return c.Salary.Cents == 0 }, "0"},
		{"savings negative", func(s *Store) { s.SetSavingsGoal("-10") }, func(c core.BudgetConfig) bool { return c.SavingsGoal.Cents == 0 }, "0"},
		{"people numeric", func(s *Store) { s.SetPeople("3") }, func(c core.BudgetConfig) bool { return c.People == 3 }, "3"},
		{"people text", func(s *Store) { s.SetPeople("many") }, func(c core.BudgetConfig) bool { return c.People == 1 }, "1"},
		{"people zero", func(s *Store) { s.SetPeople("0") }, func(c core.BudgetConfig) bool { return c.People == 1 }, "1"},
		{"people fraction", func(s *Store) { s.SetPeople("2.7") }, func(c core.BudgetConfig) bool { return c.People == 2 }, "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(core.EmptyConfig(), seqIDs())
			tc.apply(s)
			if cfg := s.Config(); !tc.check(cfg) {
				t.Fatalf("expected %s, got %+v", tc.expect, cfg)
			}
		})
	}
}

func TestUpdateCategory(t *testing.T) {
	s := New(core.EmptyConfig(), seqIDs())
	if err := s.UpdateCategory("food", "6000"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCategory("rent", "oops"); err != nil {
		t.Fatal(err)
	}
	cfg := s.Config()
	if cfg.Categories["food"].String() != "6000.00" || cfg.Categories["rent"].Cents != 0 {
		t.Fatalf("unexpected categories %v", cfg.Categories)
	}
	if err := s.UpdateCategory("  ", "1"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUsualItemLifecycle(t *testing.T) {
	s := New(core.EmptyConfig(), seqIDs())
	item := s.AddUsualItem()
	if item.ID != "item-1" || item.Category != "food" || item.Name != "" || item.CurrentPrice.Cents != 0 {
		t.Fatalf("unexpected blank item %+v", item)
	}

	updates := []struct{ field, value string }{
		{FieldName, "Bread Brown"},
		{FieldBrand, "Sasko"},
		{FieldCurrentPrice, "18.99"},
	}
	for _, u := range updates {
		if err := s.UpdateUsualItem(item.ID, u.field, u.value); err != nil {
			t.Fatalf("update %s: %v", u.field, err)
		}
	}
	got := s.Config().UsualItems[0]
	if got.Name != "Bread Brown" || got.Brand != "Sasko" || got.CurrentPrice != core.Cent(18, 99) {
		t.Fatalf("unexpected item %+v", got)
	}

	if err := s.UpdateUsualItem(item.ID, "colour", "red"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.UpdateUsualItem("missing", FieldName, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.RemoveUsualItem(item.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Config().UsualItems); n != 0 {
		t.Fatalf("expected no items, got %d", n)
	}
}

func TestPatchUsualItemIsAllOrNothing(t *testing.T) {
	s := New(core.EmptyConfig(), seqIDs())
	item, err := s.AddUsualItemWith(map[string]string{FieldName: "Panado", FieldCurrentPrice: "20"})
	if err != nil {
		t.Fatal(err)
	}
	if item.Name != "Panado" || item.CurrentPrice != core.Cent(20, 0) || item.Category != "food" {
		t.Fatalf("unexpected item %+v", item)
	}

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"unknown field", map[string]string{"bogus": "x", FieldName: "Changed"}},
		{"blank field name", map[string]string{"": "x", FieldBrand: "Changed"}},
		{"no fields", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.PatchUsualItem(item.ID, tt.fields); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := s.Config().UsualItems[0]; got != item {
				t.Fatalf("item changed on rejected patch: %+v", got)
			}
		})
	}

	if _, err := s.AddUsualItemWith(map[string]string{"colour": "red"}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(s.Config().UsualItems); n != 1 {
		t.Fatalf("rejected add appended an item, have %d", n)
	}

	got, err := s.PatchUsualItem(item.ID, map[string]string{FieldName: "Panado Extra", FieldCategory: "medication"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Panado Extra" || got.Category != "medication" || got.CurrentPrice != core.Cent(20, 0) {
		t.Fatalf("unexpected patched item %+v", got)
	}
}

func TestStoreDoesNotMutateInput(t *testing.T) {
	cfg := core.EmptyConfig()
	cfg.Categories["food"] = core.Cent(100, 0)
	s := New(cfg, seqIDs())
	_ = s.UpdateCategory("food", "5")
	s.AddUsualItem()
	if cfg.Categories["food"] != core.Cent(100, 0) || len(cfg.UsualItems) != 0 {
		t.Fatalf("input config was mutated: %+v", cfg)
	}
}

func TestSetFoodPreferencesDropsBlanks(t *testing.T) {
	s := New(core.EmptyConfig(), seqIDs())
	s.SetFoodPreferences(core.FoodPreferences{Proteins: []string{" beef ", ""}, Grains: []string{"samp"}})
	prefs := s.Config().FoodPreferences
	if len(prefs.Proteins) != 1 || prefs.Proteins[0] != "beef" || len(prefs.Vegetables) != 0 || prefs.Grains[0] != "samp" {
		t.Fatalf("unexpected prefs %+v", prefs)
	}
}
