package http

import (
	"errors"
	"net/http"

	"budgetai/internal/core"
	"budgetai/internal/insights"
	"budgetai/internal/log"
	"budgetai/internal/session"
)

func handleDashboard(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	writeJSON(w, http.StatusOK, c.Dashboard())
}

func handleDeals(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	deals := c.Deals()
	if deals == nil {
		deals = []insights.Deal{}
	}
	writeJSON(w, http.StatusOK, struct {
		Deals        []insights.Deal `json:"deals"`
		TotalSavings core.Money      `json:"totalSavings"`
	}{deals, insights.TotalSavings(deals)})
}

func handleMealPlan(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	plan := c.MealPlan()
	writeJSON(w, http.StatusOK, struct {
		Meals      []insights.Meal `json:"meals"`
		WeeklyCost core.Money      `json:"weeklyCost"`
	}{plan, insights.WeeklyMealCost(plan)})
}

type searchView struct {
	Query   string              `json:"query,omitempty"`
	Results []core.SearchResult `json:"results"`
}

func handleSearchResults(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	results := c.SearchResults()
	if results == nil {
		results = []core.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchView{Results: results})
}

// handleSearch quotes the query across the user's locations. Results are
// kept in the session so they can be added to the cart by index.
func handleSearch(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := p.Get("query")
	results, err := c.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, r, err)
			return
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Search failed",
			log.FieldSearchTerm, query, log.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "price search is unavailable").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, searchView{Query: query, Results: results})
}
