// Package cart holds the shopping cart of one user.
package cart

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"budgetai/internal/core"
)

// ErrConfirmationRequired is returned by Clear when the caller did not
// confirm the bulk removal.
var ErrConfirmationRequired = errors.New("clearing the cart requires confirmation")

// Source is anything that can be added to the cart: a search result, a deal
// or a planned meal.
type Source interface {
	CartEntry() core.CartEntry
}

// ConfirmFunc is asked before the cart is cleared. It receives the number
// of items about to be removed.
type ConfirmFunc func(items int) bool

// Patch changes quantity and/or checked state. Nil fields are untouched.
type Patch struct {
	Quantity *int  `json:"quantity,omitempty"`
	Checked  *bool `json:"checked,omitempty"`
}

type Totals struct {
	Total        core.Money `json:"total"`
	CheckedTotal core.Money `json:"checkedTotal"`
	ItemCount    int        `json:"itemCount"`
	CheckedCount int        `json:"checkedCount"`
}

// Group is the cart items of one category.
type Group struct {
	Category string          `json:"category"`
	Items    []core.CartItem `json:"items"`
	Subtotal core.Money      `json:"subtotal"`
}

type Cart struct {
	items []core.CartItem
	newID func() string
}

// New returns a cart over a copy of items. A nil newID uses random UUIDs.
func New(items []core.CartItem, newID func() string) *Cart {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Cart{items: core.CloneCart(items), newID: newID}
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []core.CartItem {
	return core.CloneCart(c.items)
}

// Add appends src as a new unchecked line with quantity one.
func (c *Cart) Add(src Source) core.CartItem {
	e := src.CartEntry()
	item := core.CartItem{
		ID:       c.newID(),
		Name:     e.Name,
		Price:    e.Price,
		Store:    e.Store,
		Location: e.Location,
		Quantity: 1,
		Category: e.Category,
	}
	c.items = append(c.items, item)
	return item
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(it core.CartItem) bool { return it.ID == id })
}

// Update applies p to the item with the given id. Quantities below one are
// stored as one.
func (c *Cart) Update(id string, p Patch) error {
	i := c.index(id)
	if i < 0 {
		return core.NotFound("cart item", id)
	}
	if p.Quantity != nil {
		c.items[i].Quantity = max(*p.Quantity, 1)
	}
	if p.Checked != nil {
		c.items[i].Checked = *p.Checked
	}
	return nil
}

// SetQuantity updates a quantity from raw form input.
func (c *Cart) SetQuantity(id, raw string) error {
	q := ParseQuantity(raw)
	return c.Update(id, Patch{Quantity: &q})
}

// ParseQuantity reads a quantity; anything that is not a positive integer
// becomes one.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (c *Cart) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return core.NotFound("cart item", id)
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

// Clear empties the cart once confirm agrees.
func (c *Cart) Clear(confirm ConfirmFunc) error {
	if confirm == nil || !confirm(len(c.items)) {
		return ErrConfirmationRequired
	}
	c.items = []core.CartItem{}
	return nil
}

func (c *Cart) Totals() Totals {
	return ComputeTotals(c.items)
}

// ComputeTotals sums price times quantity over items.
func ComputeTotals(items []core.CartItem) Totals {
	var t Totals
	for _, it := range items {
		line := it.Price.Times(it.Quantity)
		t.Total = t.Total.Add(line)
		t.ItemCount++
		if it.Checked {
			t.CheckedTotal = t.CheckedTotal.Add(line)
			t.CheckedCount++
		}
	}
	return t
}

// Groups returns the items grouped by category in first-seen order.
func (c *Cart) Groups() []Group {
	var groups []Group
	pos := map[string]int{}
	for _, it := range c.items {
		i, ok := pos[it.Category]
		if !ok {
			i = len(groups)
			pos[it.Category] = i
			groups = append(groups, Group{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal = groups[i].Subtotal.Add(it.Price.Times(it.Quantity))
	}
	return groups
}
