package http

import (
	"context"
	"net/http"

	"budgetai/internal/budget"
	"budgetai/internal/core"
	"budgetai/internal/session"
)

// handleMe returns the account and profile of the caller.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	user, err := s.accounts.User(r.Context(), c.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User    *core.User   `json:"user"`
		Profile core.Profile `json:"profile"`
	}{user, c.Profile()})
}

func handleConfig(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	writeJSON(w, http.StatusOK, c.Config())
}

// setConfigValue adapts a single-value setter such as SetSalary. The raw
// value is handed to the domain parser, which decides how to read it.
func setConfigValue(set func(*session.Controller, context.Context, string) error) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, c *session.Controller) {
		p, err := parseBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !p.Has("value") {
			writeError(w, r, core.Invalid("value", "is required"))
			return
		}
		if err := set(c, r.Context(), p.Get("value")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c.Config())
	}
}

func handleUpdateCategory(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.UpdateCategory(r.Context(), r.PathValue("name"), p.Get("value")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Config())
}

func handleFoodPreferences(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs := core.FoodPreferences{
		Proteins:   p.GetList("proteins"),
		Vegetables: p.GetList("vegetables"),
		Grains:     p.GetList("grains"),
	}
	if err := c.SetFoodPreferences(r.Context(), prefs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Config())
}

var usualItemFields = []string{budget.FieldName, budget.FieldBrand, budget.FieldCategory, budget.FieldCurrentPrice}

// handleAddUsualItem adds a usual item with any fields sent in the request.
func handleAddUsualItem(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields := map[string]string{}
	for _, field := range usualItemFields {
		if p.Has(field) {
			fields[field] = p.Get(field)
		}
	}
	item, err := c.AddUsualItemWith(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleUpdateUsualItem accepts either {"field": ..., "value": ...} or the
// item fields themselves. All of them are applied in one save.
func handleUpdateUsualItem(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields := map[string]string{}
	if p.Has("field") {
		fields[p.Get("field")] = p.Get("value")
	}
	for _, field := range usualItemFields {
		if p.Has(field) {
			fields[field] = p.Get(field)
		}
	}
	item, err := c.PatchUsualItem(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func handleRemoveUsualItem(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	if err := c.RemoveUsualItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
