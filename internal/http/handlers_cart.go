package http

import (
	"net/http"
	"strconv"

	"budgetai/internal/cart"
	"budgetai/internal/core"
	"budgetai/internal/session"
)

// Cart sources accepted by POST /api/cart/items.
const (
	sourceSearch = "search"
	sourceDeal   = "deal"
	sourceMeal   = "meal"
)

type cartView struct {
	Items  []core.CartItem `json:"items"`
	Totals cart.Totals     `json:"totals"`
	Groups []cart.Group    `json:"groups"`
}

func viewCart(c *session.Controller) cartView {
	v := cartView{Items: c.Cart(), Totals: c.CartTotals(), Groups: c.CartGroups()}
	if v.Items == nil {
		v.Items = []core.CartItem{}
	}
	if v.Groups == nil {
		v.Groups = []cart.Group{}
	}
	return v
}

func handleCart(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	writeJSON(w, http.StatusOK, viewCart(c))
}

func handleAddToCart(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var item core.CartItem
	switch source := p.Get("source"); source {
	case sourceSearch:
		index, convErr := strconv.Atoi(p.Get("index"))
		if convErr != nil {
			writeError(w, r, core.Invalid("index", "must be a whole number"))
			return
		}
		item, err = c.AddSearchResult(r.Context(), index)
	case sourceDeal:
		item, err = c.AddDeal(r.Context(), p.Get("id"))
	case sourceMeal:
		item, err = c.AddMeal(r.Context(), p.Get("day"))
	default:
		err = core.Invalid("source", "must be search, deal or meal")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func handleUpdateCartItem(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch cart.Patch
	if p.Has("quantity") {
		q := cart.ParseQuantity(p.Get("quantity"))
		patch.Quantity = &q
	}
	if p.Has("checked") {
		checked, ok := p.GetBool("checked")
		if !ok {
			writeError(w, r, core.Invalid("checked", "must be true or false"))
			return
		}
		patch.Checked = &checked
	}
	if patch.Quantity == nil && patch.Checked == nil {
		writeError(w, r, core.Invalid("quantity", "or checked is required"))
		return
	}

	if err := c.UpdateCartItem(r.Context(), r.PathValue("id"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(c))
}

func handleRemoveCartItem(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	if err := c.RemoveCartItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(c))
}

// handleClearCart needs ?confirm=true; without it the cart is left alone
// and 409 tells the client to ask the user first.
func handleClearCart(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	err := c.ClearCart(r.Context(), func(int) bool { return confirmed })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(c))
}
