package cart

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"budgetai/internal/core"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
}

type entry core.CartEntry

func (e entry) CartEntry() core.CartEntry { return core.CartEntry(e) }

func filled(t *testing.T) *Cart {
	t.Helper()
	c := New(nil, seqIDs())
	c.Add(entry{Name: "Bread", Price: core.Cent(16, 14), Store: "Spar", Category: "food"})
	c.Add(core.SearchResult{Name: "Panado", Price: core.Cent(29, 99), Store: "Clicks", Location: "Lakefield Centre"})
	c.Add(entry{Name: "Milk", Price: core.Cent(21, 24), Store: "Shoprite", Category: "food"})
	return c
}

func TestAddNormalizesSources(t *testing.T) {
	c := filled(t)
	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for _, it := range items {
		if it.Quantity != 1 || it.Checked {
			t.Fatalf("new item must start at quantity 1 unchecked: %+v", it)
		}
	}
	if items[1].Category != "medication" || items[1].Location != "Lakefield Centre" {
		t.Fatalf("search result not normalized: %+v", items[1])
	}
}

func TestTotals(t *testing.T) {
	c := filled(t)
	qty := 3
	checked := true
	if err := c.Update("c1", Patch{Quantity: &qty, Checked: &checked}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetQuantity("c3", "two"); err != nil {
		t.Fatal(err)
	}
	got := c.Totals()
	// 16.14*3 + 29.99 + 21.24
	want := Totals{Total: core.Cent(99, 65), CheckedTotal: core.Cent(48, 42), ItemCount: 3, CheckedCount: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{"3": 3, " 2 ": 2, "abc": 1, "0": 1, "-4": 1, "1.5": 1, "": 1}
	for in, want := range cases {
		if got := ParseQuantity(in); got != want {
			t.Fatalf("%q: expected %d, got %d", in, want, got)
		}
	}
}

func TestUpdateClampsQuantity(t *testing.T) {
	c := filled(t)
	zero := 0
	if err := c.Update("c2", Patch{Quantity: &zero}); err != nil {
		t.Fatal(err)
	}
	if q := c.Items()[1].Quantity; q != 1 {
		t.Fatalf("expected quantity 1, got %d", q)
	}
	if err := c.Update("nope", Patch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	c := filled(t)
	if err := c.Remove("c2"); err != nil {
		t.Fatal(err)
	}
	items := c.Items()
	if len(items) != 2 || items[0].ID != "c1" || items[1].ID != "c3" {
		t.Fatalf("unexpected items after remove: %+v", items)
	}
	if err := c.Remove("c2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	c := filled(t)
	before := c.Items()

	if err := c.Clear(nil); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if err := c.Clear(func(int) bool { return false }); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if !reflect.DeepEqual(before, c.Items()) {
		t.Fatal("declined clear changed the cart")
	}

	var asked int
	if err := c.Clear(func(n int) bool { asked = n; return true }); err != nil {
		t.Fatal(err)
	}
	if asked != 3 || len(c.Items()) != 0 {
		t.Fatalf("expected confirmed clear of 3 items, asked=%d remaining=%d", asked, len(c.Items()))
	}
}

func TestGroupsKeepFirstSeenOrder(t *testing.T) {
	groups := filled(t).Groups()
	if len(groups) != 2 || groups[0].Category != "food" || groups[1].Category != "medication" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if len(groups[0].Items) != 2 || groups[0].Subtotal != core.Cent(37, 38) {
		t.Fatalf("unexpected food group %+v", groups[0])
	}
}
