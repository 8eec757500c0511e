package core

import (
	"maps"
	"slices"
	"time"
)

// DefaultUsualItemCategory is assigned to usual items created without a category.
const DefaultUsualItemCategory = "food"

type (
	Money struct {
		Cents int64
	}

	Coordinates struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}

	// Location is a place the user shops from. Exactly one location in a
	// profile carries IsPrimary.
	Location struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		City        string      `json:"city"`
		Province    string      `json:"province"`
		Country     string      `json:"country"`
		Coordinates Coordinates `json:"coordinates"`
		IsActive    bool        `json:"isActive"`
		IsPrimary   bool        `json:"isPrimary"`
	}

	Profile struct {
		Name             string     `json:"name"`
		Locations        []Location `json:"locations"`
		ActiveLocationID string     `json:"activeLocationId"`
	}

	UsualItem struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Brand        string `json:"brand"`
		Category     string `json:"category"`
		CurrentPrice Money  `json:"currentPrice"`
	}

	FoodPreferences struct {
		Proteins   []string `json:"proteins"`
		Vegetables []string `json:"vegetables"`
		Grains     []string `json:"grains"`
	}

	// BudgetConfig is the monthly budget of one user. Categories maps a
	// category name to its monthly allocation.
	BudgetConfig struct {
		Salary          Money            `json:"salary"`
		People          int              `json:"people"`
		SavingsGoal     Money            `json:"savingsGoal"`
		Categories      map[string]Money `json:"categories"`
		UsualItems      []UsualItem      `json:"usualItems"`
		FoodPreferences FoodPreferences  `json:"foodPreferences"`
	}

	CartItem struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Price    Money  `json:"price"`
		Store    string `json:"store"`
		Location string `json:"location"`
		Quantity int    `json:"quantity"`
		Checked  bool   `json:"checked"`
		Category string `json:"category"`
	}

	// SearchResult is one store's quote for a searched item. Results are
	// never persisted.
	SearchResult struct {
		Name             string `json:"name"`
		Store            string `json:"store"`
		Price            Money  `json:"price"`
		Location         string `json:"location"`
		LocationID       string `json:"locationId"`
		Distance         string `json:"distance"`
		Stock            string `json:"stock"`
		Phone            string `json:"phone"`
		IsActiveLocation bool   `json:"isActiveLocation"`
	}

	// CartEntry is the normalized shape every cart source converts to.
	CartEntry struct {
		Name     string
		Price    Money
		Store    string
		Location string
		Category string
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

// CartEntry converts a search result into a cart entry.
func (r SearchResult) CartEntry() CartEntry {
	return CartEntry{
		Name:     r.Name,
		Price:    r.Price,
		Store:    r.Store,
		Location: r.Location,
		Category: "medication",
	}
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	p.Locations = slices.Clone(p.Locations)
	if p.Locations == nil {
		p.Locations = []Location{}
	}
	return p
}

// Clone returns a deep copy of the config.
func (c BudgetConfig) Clone() BudgetConfig {
	c.Categories = maps.Clone(c.Categories)
	if c.Categories == nil {
		c.Categories = map[string]Money{}
	}
	c.UsualItems = slices.Clone(c.UsualItems)
	if c.UsualItems == nil {
		c.UsualItems = []UsualItem{}
	}
	c.FoodPreferences = c.FoodPreferences.Clone()
	return c
}

func (f FoodPreferences) Clone() FoodPreferences {
	return FoodPreferences{
		Proteins:   slices.Clone(f.Proteins),
		Vegetables: slices.Clone(f.Vegetables),
		Grains:     slices.Clone(f.Grains),
	}
}

// CloneCart copies a cart so callers cannot mutate shared state.
func CloneCart(items []CartItem) []CartItem {
	out := slices.Clone(items)
	if out == nil {
		out = []CartItem{}
	}
	return out
}

// EmptyConfig is the config of a user with no stored document.
func EmptyConfig() BudgetConfig {
	return BudgetConfig{
		People:     1,
		Categories: map[string]Money{},
		UsualItems: []UsualItem{},
	}
}

// EmptyProfile is the profile of a user with no stored document.
func EmptyProfile() Profile {
	return Profile{Locations: []Location{}}
}

// TotalAllocated sums every category allocation.
func (c BudgetConfig) TotalAllocated() Money {
	var total Money
	for _, v := range c.Categories {
		total = total.Add(v)
	}
	return total
}
