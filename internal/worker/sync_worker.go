// Package worker exports shopping lists announced over AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetai/internal/amqp"
	"budgetai/internal/cache"
	"budgetai/internal/core"
	"budgetai/internal/log"
	"budgetai/internal/metrics"
	"budgetai/internal/sheets"
)

const kindCart = "cart"

// CartSource reads versioned carts and their owners.
type CartSource interface {
	GetCartVersion(ctx context.Context, userID string) ([]core.CartItem, int64, error)
	GetUserByID(ctx context.Context, id string) (*core.User, error)
}

// SyncWorker writes the current cart of a user to the exporter whenever a
// cart snapshot message arrives. Versions already exported are skipped.
type SyncWorker struct {
	source   CartSource
	exporter sheets.ShoppingListExporter
	exported *cache.LRUCache[int64]
	now      func() time.Time
	logger   *log.Logger
	observe  func(outcome string)
}

type Option func(*SyncWorker)

// WithObserver receives the outcome of every handled message.
func WithObserver(fn func(outcome string)) Option {
	return func(w *SyncWorker) { w.observe = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *SyncWorker) { w.now = now }
}

// WithVersionCache bounds how many users' exported versions are remembered.
func WithVersionCache(size int, ttl time.Duration) Option {
	return func(w *SyncWorker) { w.exported = cache.NewLRUCache[int64](size, ttl) }
}

func NewSyncWorker(source CartSource, exporter sheets.ShoppingListExporter, opts ...Option) *SyncWorker {
	w := &SyncWorker{
		source:   source,
		exporter: exporter,
		exported: cache.NewLRUCache[int64](1000, 24*time.Hour),
		now:      time.Now,
		logger:   log.Default(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleSnapshot is an amqp.Handler. A returned error requeues the message.
func (w *SyncWorker) HandleSnapshot(ctx context.Context, msg *amqp.SnapshotMessage) error {
	if msg.Kind != kindCart || msg.UserID == "" {
		w.record(metrics.ExportSkipped)
		return nil
	}

	items, version, err := w.source.GetCartVersion(ctx, msg.UserID)
	if err != nil {
		w.record(metrics.ExportFailed)
		return fmt.Errorf("load cart: %w", err)
	}
	if last, ok := w.exported.Get(msg.UserID); ok && version <= last {
		w.logger.DebugContext(ctx, "Cart already exported",
			log.FieldUserID, msg.UserID, "version", version)
		w.record(metrics.ExportSkipped)
		return nil
	}

	owner := msg.UserID
	user, err := w.source.GetUserByID(ctx, msg.UserID)
	switch {
	case err == nil:
		owner = user.Email
	case !errors.Is(err, core.ErrNotFound):
		w.record(metrics.ExportFailed)
		return fmt.Errorf("load user: %w", err)
	}

	list := sheets.ShoppingList{
		UserID:     msg.UserID,
		Owner:      owner,
		Version:    version,
		Items:      items,
		ExportedAt: w.now().UTC(),
	}
	if err := w.exporter.ExportShoppingList(ctx, list); err != nil {
		w.record(metrics.ExportFailed)
		return fmt.Errorf("export shopping list: %w", err)
	}

	w.exported.Set(msg.UserID, version)
	w.record(metrics.ExportOK)
	w.logger.InfoContext(ctx, "Shopping list synced",
		log.FieldUserID, msg.UserID, "version", version, "items", len(items))
	return nil
}

func (w *SyncWorker) record(outcome string) {
	if w.observe != nil {
		w.observe(outcome)
	}
}
