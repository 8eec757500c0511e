// Package search finds prices for an item across every location on a
// profile.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetai/internal/cache"
	"budgetai/internal/core"
	"budgetai/internal/log"
)

// PriceSource quotes an item at one location.
type PriceSource interface {
	Quote(ctx context.Context, query string, loc core.Location) ([]core.SearchResult, error)
}

const maxParallelQuotes = 4

type Service struct {
	source  PriceSource
	cache   *cache.LRUCache[[]core.SearchResult]
	timeout time.Duration
	logger  *log.Logger
	observe func(d time.Duration, results int, err error)
}

type Option func(*Service)

// WithCache caches quotes per query and location.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) { s.cache = cache.NewLRUCache[[]core.SearchResult](size, ttl) }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver is told the duration and outcome of every search.
func WithObserver(fn func(d time.Duration, results int, err error)) Option {
	return func(s *Service) { s.observe = fn }
}

func NewService(source PriceSource, opts ...Option) *Service {
	s := &Service{
		source:  source,
		timeout: 5 * time.Second,
		logger:  log.Default(log.ComponentSearch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search quotes query at every location concurrently and returns the merged
// results sorted by price. Results from activeID are flagged. A location
// that fails is skipped; the search fails only when every location fails.
func (s *Service) Search(ctx context.Context, query string, locs []core.Location, activeID string) ([]core.SearchResult, error) {
	start := time.Now()
	results, err := s.search(ctx, query, locs, activeID)
	if s.observe != nil {
		s.observe(time.Since(start), len(results), err)
	}
	return results, err
}

func (s *Service) search(ctx context.Context, query string, locs []core.Location, activeID string) ([]core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.Invalid("query", "is required")
	}
	if len(locs) == 0 {
		return nil, core.Invalid("locations", "at least one location is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	perLoc := make([][]core.SearchResult, len(locs))
	errs := make([]error, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQuotes)
	for i, loc := range locs {
		g.Go(func() error {
			res, err := s.quote(gctx, query, loc)
			if err != nil {
				errs[i] = fmt.Errorf("location %s: %w", loc.ID, err)
				s.logger.WarnContext(ctx, "Price quote failed",
					log.FieldSearchTerm, query, log.FieldLocationID, loc.ID, log.FieldError, err)
				return nil
			}
			perLoc[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var merged []core.SearchResult
	for i, res := range perLoc {
		for _, r := range res {
			r.IsActiveLocation = locs[i].ID == activeID
			merged = append(merged, r)
		}
	}
	if merged == nil {
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
		return []core.SearchResult{}, nil
	}
	slices.SortStableFunc(merged, func(a, b core.SearchResult) int {
		return cmp.Compare(a.Price.Cents, b.Price.Cents)
	})
	return merged, nil
}

func (s *Service) quote(ctx context.Context, query string, loc core.Location) ([]core.SearchResult, error) {
	key := strings.ToLower(query) + "\x00" + loc.ID + "\x00" + loc.City
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return slices.Clone(res), nil
		}
	}
	res, err := s.source.Quote(ctx, query, loc)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, slices.Clone(res))
	}
	return res, nil
}
