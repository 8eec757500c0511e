package sheets

import (
	"testing"

	"budgetai/internal/core"
)

func TestRows(t *testing.T) {
	list := ShoppingList{Items: []core.CartItem{
		{Name: "Panado", Store: "Clicks", Category: "medication", Quantity: 2, Price: core.Cent(25, 0), Checked: true},
		{Name: "Milk", Store: "Spar", Category: "food", Quantity: 1, Price: core.Cent(24, 99)},
	}}

	rows := Rows(list)
	if len(rows) != 4 {
		t.Fatalf("expected header, two items and totals, got %d rows", len(rows))
	}
	if rows[1][6] != "50.00" || rows[1][7] != "x" {
		t.Errorf("unexpected first item row: %v", rows[1])
	}
	total := rows[3]
	if total[0] != "Total" || total[4] != 2 || total[6] != "74.99" || total[7] != "50.00" {
		t.Errorf("unexpected totals row: %v", total)
	}
}

func TestRowsEmptyList(t *testing.T) {
	rows := Rows(ShoppingList{})
	if len(rows) != 2 || rows[1][6] != "0.00" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestTabName(t *testing.T) {
	cases := []struct{ prefix, owner, want string }{
		{"Shopping List", "a@example.com", "Shopping List - a@example.com"},
		{"Shopping List", "", "Shopping List"},
	}
	for _, tc := range cases {
		if got := TabName(tc.prefix, tc.owner); got != tc.want {
			t.Errorf("TabName(%q, %q) = %q, want %q", tc.prefix, tc.owner, got, tc.want)
		}
	}
}
