// Package sheets exports shopping lists to spreadsheets.
package sheets

import (
	"context"
	"time"

	"budgetai/internal/cart"
	"budgetai/internal/core"
)

// ShoppingList is one user's cart at a given document version.
type ShoppingList struct {
	UserID     string
	Owner      string
	Version    int64
	Items      []core.CartItem
	ExportedAt time.Time
}

// Ports for outbound adapters.
type (
	ShoppingListExporter interface {
		ExportShoppingList(ctx context.Context, list ShoppingList) error
	}
)

// Header is the first row of every exported list.
var Header = []any{"Item", "Store", "Location", "Category", "Quantity", "Price", "Subtotal", "Checked"}

// Rows renders list as a header, one row per item and a closing totals row.
// Amounts are plain decimal strings so spreadsheets parse them as numbers.
func Rows(list ShoppingList) [][]any {
	rows := make([][]any, 0, len(list.Items)+2)
	rows = append(rows, Header)
	for _, it := range list.Items {
		checked := ""
		if it.Checked {
			checked = "x"
		}
		rows = append(rows, []any{
			it.Name, it.Store, it.Location, it.Category,
			it.Quantity, it.Price.String(), it.Price.Times(it.Quantity).String(), checked,
		})
	}
	t := cart.ComputeTotals(list.Items)
	rows = append(rows, []any{"Total", "", "", "", t.ItemCount, "", t.Total.String(), t.CheckedTotal.String()})
	return rows
}

// TabName is the sheet tab holding owner's list.
func TabName(prefix, owner string) string {
	if owner == "" {
		return prefix
	}
	return prefix + " - " + owner
}
