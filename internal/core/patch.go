package core

// ConfigPatch is a partial BudgetConfig. A nil field is left untouched by
// MergeConfig; a set field replaces the stored value wholesale.
type ConfigPatch struct {
	Salary          *Money           `json:"salary,omitempty"`
	People          *int             `json:"people,omitempty"`
	SavingsGoal     *Money           `json:"savingsGoal,omitempty"`
	Categories      map[string]Money `json:"categories,omitempty"`
	UsualItems      []UsualItem      `json:"usualItems,omitempty"`
	FoodPreferences *FoodPreferences `json:"foodPreferences,omitempty"`
}

// ProfilePatch is a partial Profile with the same merge rules as ConfigPatch.
type ProfilePatch struct {
	Name             *string    `json:"name,omitempty"`
	Locations        []Location `json:"locations,omitempty"`
	ActiveLocationID *string    `json:"activeLocationId,omitempty"`
}

// FullConfigPatch sets every field of cfg.
func FullConfigPatch(cfg BudgetConfig) ConfigPatch {
	cfg = cfg.Clone()
	return ConfigPatch{
		Salary:          &cfg.Salary,
		People:          &cfg.People,
		SavingsGoal:     &cfg.SavingsGoal,
		Categories:      cfg.Categories,
		UsualItems:      cfg.UsualItems,
		FoodPreferences: &cfg.FoodPreferences,
	}
}

// FullProfilePatch sets every field of p.
func FullProfilePatch(p Profile) ProfilePatch {
	p = p.Clone()
	return ProfilePatch{
		Name:             &p.Name,
		Locations:        p.Locations,
		ActiveLocationID: &p.ActiveLocationID,
	}
}

// MergeConfig applies a shallow merge of patch onto base.
func MergeConfig(base BudgetConfig, patch ConfigPatch) BudgetConfig {
	out := base.Clone()
	if patch.Salary != nil {
		out.Salary = *patch.Salary
	}
	if patch.People != nil {
		out.People = *patch.People
	}
	if patch.SavingsGoal != nil {
		out.SavingsGoal = *patch.SavingsGoal
	}
	if patch.Categories != nil {
		out.Categories = BudgetConfig{Categories: patch.Categories}.Clone().Categories
	}
	if patch.UsualItems != nil {
		out.UsualItems = BudgetConfig{UsualItems: patch.UsualItems}.Clone().UsualItems
	}
	if patch.FoodPreferences != nil {
		out.FoodPreferences = patch.FoodPreferences.Clone()
	}
	return out
}

// MergeProfile applies a shallow merge of patch onto base.
func MergeProfile(base Profile, patch ProfilePatch) Profile {
	out := base.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Locations != nil {
		out.Locations = Profile{Locations: patch.Locations}.Clone().Locations
	}
	if patch.ActiveLocationID != nil {
		out.ActiveLocationID = *patch.ActiveLocationID
	}
	return out
}
