// Package templates loads the account templates applied when a user
// registers and when the demo account is seeded.
package templates

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"budgetai/internal/core"
)

//go:embed defaults.toml
var defaultsTOML string

type location struct {
	Name     string  `toml:"name"`
	City     string  `toml:"city"`
	Province string  `toml:"province"`
	Country  string  `toml:"country"`
	Lat      float64 `toml:"lat"`
	Lng      float64 `toml:"lng"`
}

type usualItem struct {
	Name     string  `toml:"name"`
	Brand    string  `toml:"brand"`
	Category string  `toml:"category"`
	Price    float64 `toml:"price"`
}

type foodPreferences struct {
	Proteins   []string `toml:"proteins"`
	Vegetables []string `toml:"vegetables"`
	Grains     []string `toml:"grains"`
}

type account struct {
	Email           string             `toml:"email"`
	Name            string             `toml:"name"`
	Password        string             `toml:"password"`
	Salary          float64            `toml:"salary"`
	People          int                `toml:"people"`
	SavingsGoal     float64            `toml:"savings_goal"`
	Categories      map[string]float64 `toml:"categories"`
	UsualItems      []usualItem        `toml:"usual_items"`
	FoodPreferences foodPreferences    `toml:"food_preferences"`
	Locations       []location         `toml:"locations"`
}

type file struct {
	NewUser account `toml:"new_user"`
	Demo    account `toml:"demo"`
}

// Template is the initial state of an account.
type Template struct {
	Email    string
	Name     string
	Password string

	config    core.BudgetConfig
	locations []core.Location
}

// Set holds both account templates.
type Set struct {
	NewUser Template
	Demo    Template
}

// Default returns the embedded templates.
func Default() (*Set, error) {
	return Parse(defaultsTOML)
}

// Load reads templates from path, falling back to the embedded defaults
// when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return Parse(string(b))
}

// Parse decodes a TOML template document.
func Parse(doc string) (*Set, error) {
	var f file
	if _, err := toml.Decode(doc, &f); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	newUser, err := f.NewUser.template("new_user")
	if err != nil {
		return nil, err
	}
	demo, err := f.Demo.template("demo")
	if err != nil {
		return nil, err
	}
	return &Set{NewUser: newUser, Demo: demo}, nil
}

func (a account) template(section string) (Template, error) {
	if len(a.Locations) == 0 {
		return Template{}, fmt.Errorf("template %s: at least one location is required", section)
	}
	people := a.People
	if people < 1 {
		people = 1
	}
	cfg := core.BudgetConfig{
		Salary:      core.MoneyFromFloat(a.Salary),
		People:      people,
		SavingsGoal: core.MoneyFromFloat(a.SavingsGoal),
		Categories:  make(map[string]core.Money, len(a.Categories)),
		UsualItems:  make([]core.UsualItem, 0, len(a.UsualItems)),
		FoodPreferences: core.FoodPreferences{
			Proteins:   a.FoodPreferences.Proteins,
			Vegetables: a.FoodPreferences.Vegetables,
			Grains:     a.FoodPreferences.Grains,
		},
	}
	for name, v := range a.Categories {
		cfg.Categories[name] = core.MoneyFromFloat(v)
	}
	for _, it := range a.UsualItems {
		category := it.Category
		if category == "" {
			category = core.DefaultUsualItemCategory
		}
		cfg.UsualItems = append(cfg.UsualItems, core.UsualItem{
			Name:         it.Name,
			Brand:        it.Brand,
			Category:     category,
			CurrentPrice: core.MoneyFromFloat(it.Price),
		})
	}
	locs := make([]core.Location, 0, len(a.Locations))
	for _, l := range a.Locations {
		locs = append(locs, core.Location{
			Name:        l.Name,
			City:        l.City,
			Province:    l.Province,
			Country:     l.Country,
			Coordinates: core.Coordinates{Lat: l.Lat, Lng: l.Lng},
		})
	}
	return Template{
		Email:     a.Email,
		Name:      a.Name,
		Password:  a.Password,
		config:    cfg,
		locations: locs,
	}, nil
}

// Instantiate builds the config and profile for a new account. Every usual
// item and location gets an id from newID; the first location becomes
// primary and active.
func (t Template) Instantiate(profileName string, newID func() string) (core.BudgetConfig, core.Profile) {
	cfg := t.config.Clone()
	for i := range cfg.UsualItems {
		cfg.UsualItems[i].ID = newID()
	}
	profile := core.Profile{Name: profileName, Locations: make([]core.Location, len(t.locations))}
	copy(profile.Locations, t.locations)
	for i := range profile.Locations {
		profile.Locations[i].ID = newID()
	}
	profile.Locations[0].IsPrimary = true
	profile.Locations[0].IsActive = true
	profile.ActiveLocationID = profile.Locations[0].ID
	return cfg, profile
}
