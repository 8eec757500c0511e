// Package insights derives read-only views from a budget config: remaining
// budget, weekly deals and the meal plan. Every function is pure and is
// recomputed on each read.
package insights

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetai/internal/cart"
	"budgetai/internal/core"
	"budgetai/internal/locations"
)

const (
	StatusAvailable  = "Available Budget"
	StatusOverBudget = "Over Budget"

	foodCategory = "food"
	weeksInMonth = 4
)

var (
	// DealStores rotate across usual items by position.
	DealStores = []string{"Spar", "Shoprite", "Pick n Pay", "Checkers"}

	dealRate    = decimal.RequireFromString("0.85")
	savingsRate = decimal.RequireFromString("0.15")
)

// Deal is a discounted offer on one of the user's usual items.
type Deal struct {
	ID            string     `json:"id"`
	Item          string     `json:"item"`
	Price         core.Money `json:"price"`
	OriginalPrice core.Money `json:"originalPrice"`
	Store         string     `json:"store"`
	Savings       core.Money `json:"savings"`
	Category      string     `json:"category"`
	IsUsualItem   bool       `json:"isUsualItem"`
	Expires       string     `json:"expires"`
}

func (d Deal) CartEntry() core.CartEntry {
	return core.CartEntry{Name: d.Item, Price: d.Price, Store: d.Store, Category: d.Category}
}

// RemainingBudget is salary minus every allocation and the savings goal.
func RemainingBudget(cfg core.BudgetConfig) core.Money {
	return cfg.Salary.Sub(cfg.TotalAllocated()).Sub(cfg.SavingsGoal)
}

// BudgetStatus labels a remaining amount.
func BudgetStatus(remaining core.Money) string {
	if remaining.IsNegative() {
		return StatusOverBudget
	}
	return StatusAvailable
}

// Deals offers each usual item at 85% of its current price. Deal i expires
// 3+i days after now.
func Deals(cfg core.BudgetConfig, now time.Time) []Deal {
	deals := make([]Deal, 0, len(cfg.UsualItems))
	today := now.UTC()
	for i, it := range cfg.UsualItems {
		deals = append(deals, Deal{
			ID:            fmt.Sprintf("deal-%d", i),
			Item:          it.Name + " " + it.Brand,
			Price:         it.CurrentPrice.Percent(dealRate),
			OriginalPrice: it.CurrentPrice,
			Store:         DealStores[i%len(DealStores)],
			Savings:       it.CurrentPrice.Percent(savingsRate),
			Category:      it.Category,
			IsUsualItem:   true,
			Expires:       today.AddDate(0, 0, 3+i).Format(time.DateOnly),
		})
	}
	return deals
}

// TotalSavings sums the savings of deals.
func TotalSavings(deals []Deal) core.Money {
	var total core.Money
	for _, d := range deals {
		total = total.Add(d.Savings)
	}
	return total
}

// WeeklyFoodBudget is a quarter of the monthly food allocation.
func WeeklyFoodBudget(cfg core.BudgetConfig) core.Money {
	return cfg.Categories[foodCategory].Div(weeksInMonth)
}

// Dashboard is the summary shown on the home screen.
type Dashboard struct {
	Salary           core.Money     `json:"salary"`
	People           int            `json:"people"`
	TotalAllocated   core.Money     `json:"totalAllocated"`
	SavingsGoal      core.Money     `json:"savingsGoal"`
	Remaining        core.Money     `json:"remaining"`
	Status           string         `json:"status"`
	DealCount        int            `json:"dealCount"`
	WeeklySavings    core.Money     `json:"weeklySavings"`
	WeeklyFoodBudget core.Money     `json:"weeklyFoodBudget"`
	ActiveLocation   *core.Location `json:"activeLocation"`
	Cart             cart.Totals    `json:"cart"`
}

// BuildDashboard assembles the dashboard for one user.
func BuildDashboard(cfg core.BudgetConfig, profile core.Profile, items []core.CartItem, now time.Time) Dashboard {
	remaining := RemainingBudget(cfg)
	deals := Deals(cfg, now)
	d := Dashboard{
		Salary:           cfg.Salary,
		People:           cfg.People,
		TotalAllocated:   cfg.TotalAllocated(),
		SavingsGoal:      cfg.SavingsGoal,
		Remaining:        remaining,
		Status:           BudgetStatus(remaining),
		DealCount:        len(deals),
		WeeklySavings:    TotalSavings(deals),
		WeeklyFoodBudget: WeeklyFoodBudget(cfg),
		Cart:             cart.ComputeTotals(items),
	}
	if loc, ok := locations.Active(profile); ok {
		d.ActiveLocation = &loc
	}
	return d
}
