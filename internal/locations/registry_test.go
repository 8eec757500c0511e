package locations

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"budgetai/internal/core"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("loc-%d", n)
	}
}

func form(name string) Form {
	return Form{Name: name, City: "Benoni", Province: "Gauteng", Country: "South Africa"}
}

func seeded(t *testing.T) *Registry {
	t.Helper()
	r := New(core.EmptyProfile(), seqIDs())
	for _, n := range []string{"Home", "Work", "Gran"} {
		if _, err := r.Add(form(n)); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	return r
}

func primaries(p core.Profile) int {
	n := 0
	for _, l := range p.Locations {
		if l.IsPrimary {
			n++
		}
	}
	return n
}

func TestAddFirstLocationBecomesPrimaryAndActive(t *testing.T) {
	r := New(core.EmptyProfile(), seqIDs())
	loc, err := r.Add(form("Home"))
	if err != nil {
		t.Fatal(err)
	}
	if !loc.IsPrimary || !loc.IsActive {
		t.Fatalf("first location should be primary and active: %+v", loc)
	}
	second, err := r.Add(form("Work"))
	if err != nil {
		t.Fatal(err)
	}
	if second.IsPrimary || second.IsActive {
		t.Fatalf("later locations start inactive and non-primary: %+v", second)
	}
}

func TestAddRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		f     Form
		field string
	}{
		{"blank name", Form{Name: " ", City: "Benoni", Province: "Gauteng"}, "name"},
		{"blank city", Form{Name: "Home", City: "", Province: "Gauteng"}, "city"},
		{"blank province", Form{Name: "Home", City: "Benoni", Province: "\t"}, "province"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := seeded(t)
			before := r.Profile()
			_, err := r.Add(tc.f)
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if !reflect.DeepEqual(before, r.Profile()) {
				t.Fatal("profile changed after rejected add")
			}
		})
	}
}

func TestUpdateKeepsFlags(t *testing.T) {
	r := seeded(t)
	if err := r.Update("loc-1", Form{Name: "House", City: "Boksburg", Province: "Gauteng"}); err != nil {
		t.Fatal(err)
	}
	got := r.Profile().Locations[0]
	if got.Name != "House" || got.City != "Boksburg" || !got.IsPrimary || !got.IsActive {
		t.Fatalf("unexpected location after update: %+v", got)
	}
	if err := r.Update("missing", form("x")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteGuards(t *testing.T) {
	t.Run("only location", func(t *testing.T) {
		r := New(core.EmptyProfile(), seqIDs())
		loc, _ := r.Add(form("Home"))
		before := r.Profile()
		if err := r.Delete(loc.ID); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !reflect.DeepEqual(before, r.Profile()) {
			t.Fatal("profile changed after rejected delete")
		}
	})
	t.Run("primary location", func(t *testing.T) {
		r := seeded(t)
		before := r.Profile()
		if err := r.Delete("loc-1"); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !reflect.DeepEqual(before, r.Profile()) {
			t.Fatal("profile changed after rejected delete")
		}
	})
	t.Run("unknown id", func(t *testing.T) {
		r := seeded(t)
		if err := r.Delete("nope"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestDeleteActiveFallsBackToPrimary(t *testing.T) {
	r := seeded(t)
	if err := r.SwitchActive("loc-3"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetPrimary("loc-2"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete("loc-3"); err != nil {
		t.Fatal(err)
	}
	active, ok := r.Active()
	if !ok || active.ID != "loc-2" {
		t.Fatalf("expected primary loc-2 to become active, got %+v", active)
	}
	if !active.IsActive {
		t.Fatal("active flag should follow the active id")
	}
}

func TestActiveFallsBackToFirst(t *testing.T) {
	p := core.Profile{
		Locations:        []core.Location{{ID: "a"}, {ID: "b", IsPrimary: true}},
		ActiveLocationID: "gone",
	}
	got, ok := Active(p)
	if !ok || got.ID != "a" {
		t.Fatalf("expected first location, got %+v", got)
	}
	if _, ok := Active(core.EmptyProfile()); ok {
		t.Fatal("empty profile has no active location")
	}
}

func TestSetPrimaryAndSwitchActiveUnknown(t *testing.T) {
	r := seeded(t)
	if err := r.SetPrimary("x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := r.SwitchActive("x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRandomOperationsKeepOnePrimary(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := New(core.EmptyProfile(), seqIDs())
	if _, err := r.Add(form("Home")); err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 500; step++ {
		p := r.Profile()
		pick := p.Locations[rng.IntN(len(p.Locations))].ID
		switch rng.IntN(5) {
		case 0:
			_, _ = r.Add(form(fmt.Sprintf("L%d", step)))
		case 1:
			_ = r.Delete(pick)
		case 2:
			_ = r.SetPrimary(pick)
		case 3:
			_ = r.SwitchActive(pick)
		case 4:
			_ = r.Update(pick, form("Renamed"))
		}
		p = r.Profile()
		if len(p.Locations) == 0 {
			t.Fatalf("step %d: profile lost every location", step)
		}
		if n := primaries(p); n != 1 {
			t.Fatalf("step %d: expected exactly one primary, got %d", step, n)
		}
		if _, ok := r.Active(); !ok {
			t.Fatalf("step %d: no active location", step)
		}
	}
}
