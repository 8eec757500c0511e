// Package session owns the live state of one signed-in user: profile,
// budget config, cart and the latest search results.
//
// Every mutation is computed on a copy, written through the store and only
// then adopted. A failed save leaves the controller exactly as it was and
// returns an error matching core.ErrPersistence.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"budgetai/internal/budget"
	"budgetai/internal/cart"
	"budgetai/internal/core"
	"budgetai/internal/insights"
	"budgetai/internal/locations"
	"budgetai/internal/log"
	"budgetai/internal/store"
)

// ErrClosed is returned by mutations on a controller the Manager has
// retired. A fresh controller from Manager.Get holds the current state.
var ErrClosed = fmt.Errorf("%w: session closed", core.ErrPersistence)

type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Searcher finds prices across locations.
type Searcher interface {
	Search(ctx context.Context, query string, locs []core.Location, activeID string) ([]core.SearchResult, error)
}

type Controller struct {
	mu sync.Mutex

	userID        string
	store         store.SessionStore
	searcher      Searcher
	newID         func() string
	now           func() time.Time
	logger        *log.Logger
	onSaveFailure func(document string)

	state   State
	closed  bool
	config  core.BudgetConfig
	profile core.Profile
	cart    []core.CartItem
	results []core.SearchResult
}

type Option func(*Controller)

func WithSearcher(s Searcher) Option {
	return func(c *Controller) { c.searcher = s }
}

// WithIDs replaces the UUID generator.
func WithIDs(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSaveFailureHook is called with the document kind after each failed save.
func WithSaveFailureHook(fn func(document string)) Option {
	return func(c *Controller) { c.onSaveFailure = fn }
}

// Start loads the user's documents and returns a ready controller.
func Start(ctx context.Context, userID string, st store.SessionStore, opts ...Option) (*Controller, error) {
	c := &Controller{
		userID: userID,
		store:  st,
		newID:  uuid.NewString,
		now:    time.Now,
		logger: log.Default(log.ComponentSession),
		state:  StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory state with what the store holds.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateLoading

	var (
		cfg     *core.BudgetConfig
		profile *core.Profile
		items   []core.CartItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { cfg, err = c.store.GetConfig(gctx, c.userID); return })
	g.Go(func() (err error) { profile, err = c.store.GetProfile(gctx, c.userID); return })
	g.Go(func() (err error) { items, err = c.store.GetCart(gctx, c.userID); return })
	if err := g.Wait(); err != nil {
		return core.Persistence("load session", err)
	}

	c.config = core.EmptyConfig()
	if cfg != nil {
		c.config = cfg.Clone()
		c.config.People = max(c.config.People, 1)
	}
	c.profile = core.EmptyProfile()
	if profile != nil {
		c.profile = profile.Clone()
	}
	c.cart = core.CloneCart(items)
	c.state = StateReady
	c.logger.DebugContext(ctx, "Session loaded", log.FieldUserID, c.userID,
		"locations", len(c.profile.Locations), "cart_items", len(c.cart))
	return nil
}

func (c *Controller) UserID() string { return c.userID }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// close stops further mutations. It waits for a mutation in progress, so
// a controller loaded afterwards sees its save.
func (c *Controller) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) saveFailed(ctx context.Context, document string, err error) error {
	c.logger.ErrorContext(ctx, "Failed to save document",
		log.FieldUserID, c.userID, log.FieldDocument, document, log.FieldError, err)
	if c.onSaveFailure != nil {
		c.onSaveFailure(document)
	}
	return core.Persistence("save "+document, err)
}

// editProfile runs fn on a registry over the current profile and persists
// the locations it produced.
func (c *Controller) editProfile(ctx context.Context, fn func(r *locations.Registry) error) error {
	if c.closed {
		return ErrClosed
	}
	reg := locations.New(c.profile, c.newID)
	if err := fn(reg); err != nil {
		return err
	}
	next := reg.Profile()
	patch := core.ProfilePatch{Locations: next.Locations, ActiveLocationID: &next.ActiveLocationID}
	if err := c.store.SaveProfile(ctx, c.userID, patch); err != nil {
		return c.saveFailed(ctx, "profile", err)
	}
	c.profile = next
	return nil
}

// editConfig runs fn on a budget store and writes the whole merged config.
func (c *Controller) editConfig(ctx context.Context, fn func(s *budget.Store) error) error {
	if c.closed {
		return ErrClosed
	}
	s := budget.New(c.config, c.newID)
	if err := fn(s); err != nil {
		return err
	}
	next := s.Config()
	if err := c.store.SaveConfig(ctx, c.userID, core.FullConfigPatch(next)); err != nil {
		return c.saveFailed(ctx, "config", err)
	}
	c.config = next
	return nil
}

func (c *Controller) editCart(ctx context.Context, fn func(ct *cart.Cart) error) error {
	if c.closed {
		return ErrClosed
	}
	ct := cart.New(c.cart, c.newID)
	if err := fn(ct); err != nil {
		return err
	}
	next := ct.Items()
	if err := c.store.SaveCart(ctx, c.userID, next); err != nil {
		return c.saveFailed(ctx, "cart", err)
	}
	c.cart = next
	return nil
}

// Location registry

func (c *Controller) AddLocation(ctx context.Context, f locations.Form) (core.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var added core.Location
	err := c.editProfile(ctx, func(r *locations.Registry) (err error) {
		added, err = r.Add(f)
		return err
	})
	return added, err
}

func (c *Controller) UpdateLocation(ctx context.Context, id string, f locations.Form) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editProfile(ctx, func(r *locations.Registry) error { return r.Update(id, f) })
}

func (c *Controller) DeleteLocation(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editProfile(ctx, func(r *locations.Registry) error { return r.Delete(id) })
}

func (c *Controller) SwitchActiveLocation(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editProfile(ctx, func(r *locations.Registry) error { return r.SwitchActive(id) })
}

func (c *Controller) SetPrimaryLocation(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editProfile(ctx, func(r *locations.Registry) error { return r.SetPrimary(id) })
}

// ActiveLocation resolves the active location; ok is false with no locations.
func (c *Controller) ActiveLocation() (core.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return locations.Active(c.profile)
}

// Budget configuration

func (c *Controller) SetSalary(ctx context.Context, raw string) error {
	return c.configSetter(ctx, func(s *budget.Store) { s.SetSalary(raw) })
}

func (c *Controller) SetPeople(ctx context.Context, raw string) error {
	return c.configSetter(ctx, func(s *budget.Store) { s.SetPeople(raw) })
}

func (c *Controller) SetSavingsGoal(ctx context.Context, raw string) error {
	return c.configSetter(ctx, func(s *budget.Store) { s.SetSavingsGoal(raw) })
}

func (c *Controller) SetFoodPreferences(ctx context.Context, prefs core.FoodPreferences) error {
	return c.configSetter(ctx, func(s *budget.Store) { s.SetFoodPreferences(prefs) })
}

func (c *Controller) configSetter(ctx context.Context, fn func(s *budget.Store)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editConfig(ctx, func(s *budget.Store) error { fn(s); return nil })
}

func (c *Controller) UpdateCategory(ctx context.Context, name, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editConfig(ctx, func(s *budget.Store) error { return s.UpdateCategory(name, raw) })
}

func (c *Controller) AddUsualItem(ctx context.Context) (core.UsualItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var item core.UsualItem
	err := c.editConfig(ctx, func(s *budget.Store) error { item = s.AddUsualItem(); return nil })
	return item, err
}

func (c *Controller) UpdateUsualItem(ctx context.Context, id, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editConfig(ctx, func(s *budget.Store) error { return s.UpdateUsualItem(id, field, value) })
}

// AddUsualItemWith adds an item with the given fields set, saving once.
func (c *Controller) AddUsualItemWith(ctx context.Context, fields map[string]string) (core.UsualItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var item core.UsualItem
	err := c.editConfig(ctx, func(s *budget.Store) (err error) {
		item, err = s.AddUsualItemWith(fields)
		return err
	})
	return item, err
}

// PatchUsualItem sets several fields of one item. An unknown field rejects
// the whole patch.
func (c *Controller) PatchUsualItem(ctx context.Context, id string, fields map[string]string) (core.UsualItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var item core.UsualItem
	err := c.editConfig(ctx, func(s *budget.Store) (err error) {
		item, err = s.PatchUsualItem(id, fields)
		return err
	})
	return item, err
}

func (c *Controller) RemoveUsualItem(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editConfig(ctx, func(s *budget.Store) error { return s.RemoveUsualItem(id) })
}

// Cart

func (c *Controller) AddToCart(ctx context.Context, src cart.Source) (core.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addToCart(ctx, src)
}

func (c *Controller) addToCart(ctx context.Context, src cart.Source) (core.CartItem, error) {
	var item core.CartItem
	err := c.editCart(ctx, func(ct *cart.Cart) error { item = ct.Add(src); return nil })
	return item, err
}

// AddSearchResult adds the result at index of the latest search.
func (c *Controller) AddSearchResult(ctx context.Context, index int) (core.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.results) {
		return core.CartItem{}, core.NotFound("search result", fmt.Sprint(index))
	}
	return c.addToCart(ctx, c.results[index])
}

// AddDeal adds the current deal with the given id.
func (c *Controller) AddDeal(ctx context.Context, dealID string) (core.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range insights.Deals(c.config, c.now()) {
		if d.ID == dealID {
			return c.addToCart(ctx, d)
		}
	}
	return core.CartItem{}, core.NotFound("deal", dealID)
}

// AddMeal adds the planned meal for day, e.g. "Monday".
func (c *Controller) AddMeal(ctx context.Context, day string) (core.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range insights.MealPlan(c.config) {
		if strings.EqualFold(m.Day, day) {
			return c.addToCart(ctx, m)
		}
	}
	return core.CartItem{}, core.NotFound("meal", day)
}

func (c *Controller) UpdateCartItem(ctx context.Context, id string, p cart.Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCart(ctx, func(ct *cart.Cart) error { return ct.Update(id, p) })
}

func (c *Controller) SetCartQuantity(ctx context.Context, id, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCart(ctx, func(ct *cart.Cart) error { return ct.SetQuantity(id, raw) })
}

func (c *Controller) RemoveCartItem(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCart(ctx, func(ct *cart.Cart) error { return ct.Remove(id) })
}

// ClearCart empties the cart once confirm agrees.
func (c *Controller) ClearCart(ctx context.Context, confirm cart.ConfirmFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editCart(ctx, func(ct *cart.Cart) error { return ct.Clear(confirm) })
}

// Search

// Search quotes query across every profile location. The lock is not held
// while quotes are fetched; whichever search finishes last owns the stored
// results.
func (c *Controller) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if c.searcher == nil {
		return nil, fmt.Errorf("search is not configured")
	}
	c.mu.Lock()
	locs := core.Profile{Locations: c.profile.Locations}.Clone().Locations
	active, _ := locations.Active(c.profile)
	c.mu.Unlock()

	results, err := c.searcher.Search(ctx, query, locs, active.ID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.results = results
	c.mu.Unlock()
	c.logger.DebugContext(ctx, "Search finished", log.FieldUserID, c.userID,
		log.FieldSearchTerm, strings.TrimSpace(query), log.FieldResults, len(results))
	return append([]core.SearchResult(nil), results...), nil
}

// Reads

func (c *Controller) Config() core.BudgetConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone()
}

func (c *Controller) Profile() core.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Clone()
}

func (c *Controller) Cart() []core.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.CloneCart(c.cart)
}

func (c *Controller) CartTotals() cart.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cart.ComputeTotals(c.cart)
}

func (c *Controller) CartGroups() []cart.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cart.New(c.cart, c.newID).Groups()
}

func (c *Controller) SearchResults() []core.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.SearchResult(nil), c.results...)
}

func (c *Controller) RemainingBudget() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return insights.RemainingBudget(c.config)
}

func (c *Controller) Deals() []insights.Deal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return insights.Deals(c.config, c.now())
}

func (c *Controller) MealPlan() []insights.Meal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return insights.MealPlan(c.config)
}

func (c *Controller) Dashboard() insights.Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return insights.BuildDashboard(c.config, c.profile, c.cart, c.now())
}
