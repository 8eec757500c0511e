// Package memory records exported shopping lists in process.
package memory

import (
	"context"
	"sync"

	"budgetai/internal/core"
	"budgetai/internal/sheets"
)

// Recorder keeps the latest export per user.
type Recorder struct {
	mu      sync.Mutex
	latest  map[string]sheets.ShoppingList
	exports int
}

var _ sheets.ShoppingListExporter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{latest: map[string]sheets.ShoppingList{}}
}

func (r *Recorder) ExportShoppingList(_ context.Context, list sheets.ShoppingList) error {
	list.Items = core.CloneCart(list.Items)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[list.UserID] = list
	r.exports++
	return nil
}

// Latest returns the last list exported for userID.
func (r *Recorder) Latest(userID string) (sheets.ShoppingList, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.latest[userID]
	return l, ok
}

// Count is the number of exports received.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exports
}
