// Package budget edits a user's BudgetConfig from raw form input.
//
// Setters never fail on bad numbers: money fields fall back to zero and the
// household size falls back to one. A Store works on a copy; callers persist
// Config() before adopting it.
package budget

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"budgetai/internal/core"
)

// Usual item fields accepted by PatchUsualItem.
const (
	FieldName         = "name"
	FieldBrand        = "brand"
	FieldCategory     = "category"
	FieldCurrentPrice = "currentPrice"
)

type Store struct {
	cfg   core.BudgetConfig
	newID func() string
}

// New returns a store over a copy of cfg. A nil newID uses random UUIDs.
func New(cfg core.BudgetConfig, newID func() string) *Store {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Store{cfg: cfg.Clone(), newID: newID}
}

// Config returns a copy of the edited config.
func (s *Store) Config() core.BudgetConfig {
	return s.cfg.Clone()
}

func (s *Store) SetSalary(raw string)      { s.cfg.Salary = core.ParseMoney(raw) }
func (s *Store) SetSavingsGoal(raw string) { s.cfg.SavingsGoal = core.ParseMoney(raw) }
func (s *Store) SetPeople(raw string)      { s.cfg.People = ParsePeople(raw) }

// ParsePeople reads a household size. Fractions are truncated and anything
// below one, or not a number, becomes one.
func ParsePeople(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
			return 1
		}
		n = int(f)
	}
	if n < 1 {
		return 1
	}
	return n
}

// UpdateCategory sets the allocation for name.
func (s *Store) UpdateCategory(name, raw string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Invalid("category", "name is required")
	}
	s.cfg.Categories[name] = core.ParseMoney(raw)
	return nil
}

// AddUsualItem appends a blank item and returns it.
func (s *Store) AddUsualItem() core.UsualItem {
	item := core.UsualItem{ID: s.newID(), Category: core.DefaultUsualItemCategory}
	s.cfg.UsualItems = append(s.cfg.UsualItems, item)
	return item
}

// AddUsualItemWith appends an item with fields applied. Nothing is added
// when a field name is unknown.
func (s *Store) AddUsualItemWith(fields map[string]string) (core.UsualItem, error) {
	if err := checkUsualItemFields(fields); err != nil {
		return core.UsualItem{}, err
	}
	item := core.UsualItem{ID: s.newID(), Category: core.DefaultUsualItemCategory}
	for field, value := range fields {
		setUsualItemField(&item, field, value)
	}
	s.cfg.UsualItems = append(s.cfg.UsualItems, item)
	return item, nil
}

// UpdateUsualItem patches one field of the item with the given id.
func (s *Store) UpdateUsualItem(id, field, value string) error {
	_, err := s.PatchUsualItem(id, map[string]string{field: value})
	return err
}

// PatchUsualItem sets every field in fields on one item, or none of them.
func (s *Store) PatchUsualItem(id string, fields map[string]string) (core.UsualItem, error) {
	i := slices.IndexFunc(s.cfg.UsualItems, func(it core.UsualItem) bool { return it.ID == id })
	if i < 0 {
		return core.UsualItem{}, core.NotFound("usual item", id)
	}
	if len(fields) == 0 {
		return core.UsualItem{}, core.Invalid("field", "is required")
	}
	if err := checkUsualItemFields(fields); err != nil {
		return core.UsualItem{}, err
	}
	item := &s.cfg.UsualItems[i]
	for field, value := range fields {
		setUsualItemField(item, field, value)
	}
	return *item, nil
}

func checkUsualItemFields(fields map[string]string) error {
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		switch field {
		case FieldName, FieldBrand, FieldCategory, FieldCurrentPrice:
		default:
			return core.Invalid("field", "unknown usual item field "+strconv.Quote(field))
		}
	}
	return nil
}

func setUsualItemField(item *core.UsualItem, field, value string) {
	switch field {
	case FieldName:
		item.Name = value
	case FieldBrand:
		item.Brand = value
	case FieldCategory:
		item.Category = value
	case FieldCurrentPrice:
		item.CurrentPrice = core.ParseMoney(value)
	}
}

func (s *Store) RemoveUsualItem(id string) error {
	i := slices.IndexFunc(s.cfg.UsualItems, func(it core.UsualItem) bool { return it.ID == id })
	if i < 0 {
		return core.NotFound("usual item", id)
	}
	s.cfg.UsualItems = slices.Delete(s.cfg.UsualItems, i, i+1)
	return nil
}

// SetFoodPreferences replaces the preference lists, dropping blank entries.
func (s *Store) SetFoodPreferences(prefs core.FoodPreferences) {
	s.cfg.FoodPreferences = core.FoodPreferences{
		Proteins:   compact(prefs.Proteins),
		Vegetables: compact(prefs.Vegetables),
		Grains:     compact(prefs.Grains),
	}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
