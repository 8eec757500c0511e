// Package locations manages the set of shopping locations on a profile.
//
// A Registry works on its own copy of the profile. Callers persist
// Registry.Profile() and only then adopt it, so a rejected or unsaved change
// never leaks into the live profile.
package locations

import (
	"strings"

	"github.com/google/uuid"

	"budgetai/internal/core"
)

// Form carries the user-editable fields of a location.
type Form struct {
	Name        string           `json:"name"`
	City        string           `json:"city"`
	Province    string           `json:"province"`
	Country     string           `json:"country"`
	Coordinates core.Coordinates `json:"coordinates"`
}

// Validate requires a name, city and province.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return core.Invalid("name", "is required")
	}
	if strings.TrimSpace(f.City) == "" {
		return core.Invalid("city", "is required")
	}
	if strings.TrimSpace(f.Province) == "" {
		return core.Invalid("province", "is required")
	}
	return nil
}

func (f Form) apply(l *core.Location) {
	l.Name = strings.TrimSpace(f.Name)
	l.City = strings.TrimSpace(f.City)
	l.Province = strings.TrimSpace(f.Province)
	l.Country = strings.TrimSpace(f.Country)
	l.Coordinates = f.Coordinates
}

type Registry struct {
	profile core.Profile
	newID   func() string
}

// New returns a registry over a copy of p. A nil newID uses random UUIDs.
func New(p core.Profile, newID func() string) *Registry {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{profile: p.Clone(), newID: newID}
}

// Profile returns a copy of the current profile.
func (r *Registry) Profile() core.Profile {
	return r.profile.Clone()
}

func (r *Registry) index(id string) int {
	for i, l := range r.profile.Locations {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new location. It becomes primary and active only when the
// profile had no primary location.
func (r *Registry) Add(f Form) (core.Location, error) {
	if err := f.Validate(); err != nil {
		return core.Location{}, err
	}
	loc := core.Location{ID: r.newID()}
	f.apply(&loc)
	r.profile.Locations = append(r.profile.Locations, loc)
	if r.primaryIndex() < 0 {
		last := len(r.profile.Locations) - 1
		r.profile.Locations[last].IsPrimary = true
		r.setActive(loc.ID)
	}
	return r.profile.Locations[len(r.profile.Locations)-1], nil
}

// Update replaces the editable fields of id. Flags are left alone.
func (r *Registry) Update(id string, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}
	i := r.index(id)
	if i < 0 {
		return core.NotFound("location", id)
	}
	f.apply(&r.profile.Locations[i])
	return nil
}

// Delete removes id. The only location and the primary location cannot be
// deleted. Deleting the active location moves activity to the primary, or
// to the first remaining location.
func (r *Registry) Delete(id string) error {
	i := r.index(id)
	if i < 0 {
		return core.NotFound("location", id)
	}
	if len(r.profile.Locations) == 1 {
		return core.Invalid("location", "cannot delete the only location")
	}
	if r.profile.Locations[i].IsPrimary {
		return core.Invalid("location", "cannot delete the primary location")
	}
	wasActive := r.profile.ActiveLocationID == id
	r.profile.Locations = append(r.profile.Locations[:i], r.profile.Locations[i+1:]...)
	if wasActive {
		next := r.profile.Locations[0].ID
		if p := r.primaryIndex(); p >= 0 {
			next = r.profile.Locations[p].ID
		}
		r.setActive(next)
	}
	return nil
}

// SwitchActive makes id the active location.
func (r *Registry) SwitchActive(id string) error {
	if r.index(id) < 0 {
		return core.NotFound("location", id)
	}
	r.setActive(id)
	return nil
}

// SetPrimary moves the primary flag to id.
func (r *Registry) SetPrimary(id string) error {
	if r.index(id) < 0 {
		return core.NotFound("location", id)
	}
	for i := range r.profile.Locations {
		r.profile.Locations[i].IsPrimary = r.profile.Locations[i].ID == id
	}
	return nil
}

// Active returns the location matching the active id, else the first
// location. ok is false only when there are no locations.
func (r *Registry) Active() (core.Location, bool) {
	return Active(r.profile)
}

// Active resolves the active location of p.
func Active(p core.Profile) (core.Location, bool) {
	for _, l := range p.Locations {
		if l.ID == p.ActiveLocationID {
			return l, true
		}
	}
	if len(p.Locations) > 0 {
		return p.Locations[0], true
	}
	return core.Location{}, false
}

func (r *Registry) primaryIndex() int {
	for i, l := range r.profile.Locations {
		if l.IsPrimary {
			return i
		}
	}
	return -1
}

func (r *Registry) setActive(id string) {
	r.profile.ActiveLocationID = id
	for i := range r.profile.Locations {
		r.profile.Locations[i].IsActive = r.profile.Locations[i].ID == id
	}
}
