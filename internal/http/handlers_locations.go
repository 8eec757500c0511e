package http

import (
	"net/http"

	"budgetai/internal/core"
	"budgetai/internal/locations"
	"budgetai/internal/session"
)

type locationsView struct {
	Locations        []core.Location `json:"locations"`
	ActiveLocationID string          `json:"activeLocationId"`
}

func viewLocations(c *session.Controller) locationsView {
	p := c.Profile()
	locs := p.Locations
	if locs == nil {
		locs = []core.Location{}
	}
	return locationsView{Locations: locs, ActiveLocationID: p.ActiveLocationID}
}

func handleLocations(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	writeJSON(w, http.StatusOK, viewLocations(c))
}

func parseLocationForm(p *RequestBodyParser) locations.Form {
	return locations.Form{
		Name:     p.Get("name"),
		City:     p.Get("city"),
		Province: p.Get("province"),
		Country:  p.Get("country"),
		Coordinates: core.Coordinates{
			Lat: p.GetFloat("lat"),
			Lng: p.GetFloat("lng"),
		},
	}
}

func handleAddLocation(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loc, err := c.AddLocation(r.Context(), parseLocationForm(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func handleUpdateLocation(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.UpdateLocation(r.Context(), r.PathValue("id"), parseLocationForm(p)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewLocations(c))
}

func handleDeleteLocation(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	if err := c.DeleteLocation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewLocations(c))
}

func handleSwitchLocation(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	if err := c.SwitchActiveLocation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewLocations(c))
}

func handleSetPrimaryLocation(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	if err := c.SetPrimaryLocation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewLocations(c))
}
