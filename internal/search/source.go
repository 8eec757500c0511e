package search

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"budgetai/internal/core"
)

// Stock labels.
const (
	StockIn      = "In Stock"
	StockLimited = "Limited Stock"
)

// Pharmacy is one store in the simulated catalogue.
type Pharmacy struct {
	Name       string
	Multiplier decimal.Decimal
	Branch     string
	Distance   string
	Phone      string
}

// Pharmacies is the catalogue SeededSource quotes from.
var Pharmacies = []Pharmacy{
	{"Dis-Chem", decimal.RequireFromString("0.95"), "Benoni City", "2.1km", "011-421-0000"},
	{"Clicks", decimal.RequireFromString("1.00"), "Lakefield Centre", "3.2km", "011-425-0000"},
	{"Alpha Pharm", decimal.RequireFromString("0.92"), "Main Street", "2.5km", "011-422-0000"},
	{"Medirite", decimal.RequireFromString("1.05"), "Northmead Mall", "4.1km", "011-427-0000"},
	{"Pick n Pay Pharmacy", decimal.RequireFromString("1.08"), "Benoni Square", "1.8km", "011-423-0000"},
}

// SeededSource simulates a price search. The same seed, query and location
// always produce the same quotes.
type SeededSource struct {
	seed uint64
}

func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{seed: uint64(seed)}
}

// Quote returns one result per catalogue pharmacy for loc. The base price
// lies between 20 and 70 and each pharmacy applies its multiplier.
func (s *SeededSource) Quote(ctx context.Context, query string, loc core.Location) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	h.Write([]byte{0})
	h.Write([]byte(loc.ID))
	rng := rand.New(rand.NewPCG(s.seed, h.Sum64()))

	base := core.MoneyFromFloat(rng.Float64()*50 + 20)
	results := make([]core.SearchResult, 0, len(Pharmacies))
	for _, p := range Pharmacies {
		stock := StockLimited
		if rng.Float64() > 0.3 {
			stock = StockIn
		}
		branch := p.Branch
		if loc.City != "" {
			branch += ", " + loc.City
		}
		results = append(results, core.SearchResult{
			Name:       strings.TrimSpace(query),
			Store:      p.Name,
			Price:      base.Percent(p.Multiplier),
			Location:   branch,
			LocationID: loc.ID,
			Distance:   p.Distance,
			Stock:      stock,
			Phone:      p.Phone,
		})
	}
	return results, nil
}
