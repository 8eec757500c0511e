package insights

import (
	"budgetai/internal/core"
)

const baselineHousehold = 4

// Meal is one day of the weekly meal plan.
type Meal struct {
	Day         string     `json:"day"`
	Meal        string     `json:"meal"`
	Cost        core.Money `json:"cost"`
	Serves      int        `json:"serves"`
	Ingredients []string   `json:"ingredients"`
	Calories    int        `json:"calories"`
}

func (m Meal) CartEntry() core.CartEntry {
	return core.CartEntry{Name: m.Day + ": " + m.Meal, Price: m.Cost, Store: "Meal plan", Category: foodCategory}
}

// pantry resolves preference lists with fallbacks for short or empty lists.
type pantry struct {
	proteins, vegetables, grains []string
}

func newPantry(p core.FoodPreferences) pantry {
	out := pantry{proteins: p.Proteins, vegetables: p.Vegetables, grains: p.Grains}
	if len(out.proteins) == 0 {
		out.proteins = []string{"chicken", "eggs"}
	}
	if len(out.vegetables) == 0 {
		out.vegetables = []string{"potatoes", "onions"}
	}
	if len(out.grains) == 0 {
		out.grains = []string{"rice", "pap"}
	}
	return out
}

func pick(list []string, i int, fallback string) string {
	if i < len(list) {
		return list[i]
	}
	return fallback
}

type mealTemplate struct {
	day            string
	baseCost       core.Money
	perPersonDelta core.Money
	calories       int
	build          func(p pantry) (name string, ingredients []string)
}

var weekTemplate = []mealTemplate{
	{"Monday", core.Cent(45, 20), core.Cent(8, 0), 520, func(p pantry) (string, []string) {
		protein, grain := p.proteins[0], p.grains[0]
		return protein + " & " + grain + " Curry", []string{protein, grain, pick(p.vegetables, 0, "onions")}
	}},
	{"Tuesday", core.Cent(28, 50), core.Cent(5, 0), 380, func(p pantry) (string, []string) {
		protein, veg := pick(p.proteins, 1, p.proteins[0]), p.vegetables[0]
		return protein + " & " + veg + " Scramble", []string{protein, veg}
	}},
	{"Wednesday", core.Cent(52, 80), core.Cent(10, 0), 450, func(p pantry) (string, []string) {
		protein := p.proteins[0]
		return protein + " Stir Fry", []string{protein, pick(p.vegetables, 1, pick(p.vegetables, 0, "mixed vegetables"))}
	}},
	{"Thursday", core.Cent(32, 20), core.Cent(6, 0), 420, func(p pantry) (string, []string) {
		grain := p.grains[0]
		return grain + " & Lentil Bowl", []string{"Lentils", grain, pick(p.vegetables, 0, "onions")}
	}},
	{"Friday", core.Cent(25, 90), core.Cent(4, 0), 350, func(p pantry) (string, []string) {
		veg := p.vegetables[0]
		return veg + " Curry", []string{veg, "Curry spices", "tomatoes"}
	}},
}

// MealCost scales a base cost linearly around a four person household.
// The result is clamped at zero.
func MealCost(base, perPerson core.Money, people int) core.Money {
	cost := base.Add(perPerson.Times(people - baselineHousehold))
	if cost.IsNegative() {
		return core.Money{}
	}
	return cost
}

// MealPlan returns the Monday to Friday plan for cfg.
func MealPlan(cfg core.BudgetConfig) []Meal {
	p := newPantry(cfg.FoodPreferences)
	people := max(cfg.People, 1)
	plan := make([]Meal, 0, len(weekTemplate))
	for _, tmpl := range weekTemplate {
		name, ingredients := tmpl.build(p)
		plan = append(plan, Meal{
			Day:         tmpl.day,
			Meal:        name,
			Cost:        MealCost(tmpl.baseCost, tmpl.perPersonDelta, people),
			Serves:      people,
			Ingredients: ingredients,
			Calories:    tmpl.calories,
		})
	}
	return plan
}

// WeeklyMealCost sums the plan.
func WeeklyMealCost(plan []Meal) core.Money {
	var total core.Money
	for _, m := range plan {
		total = total.Add(m.Cost)
	}
	return total
}
