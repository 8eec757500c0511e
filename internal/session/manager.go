package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"budgetai/internal/cache"
	"budgetai/internal/log"
	"budgetai/internal/store"
)

// Manager keeps recently used controllers in memory. Concurrent first
// requests for the same user share one load.
//
// At most one controller per user accepts mutations. An evicted controller
// is closed, and a user's next controller is loaded only after the previous
// one is closed, so a request still holding the old one cannot overwrite
// newer saves.
type Manager struct {
	store    store.SessionStore
	opts     []Option
	sessions *cache.LRUCache[*Controller]
	group    singleflight.Group
	logger   *log.Logger
	onSize   func(n int)

	mu   sync.Mutex
	open map[string]*Controller
}

type ManagerOption func(*Manager)

// WithSessionOptions are applied to every controller the manager starts.
func WithSessionOptions(opts ...Option) ManagerOption {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// WithSizeHook reports the number of live sessions after each change.
func WithSizeHook(fn func(n int)) ManagerOption {
	return func(m *Manager) { m.onSize = fn }
}

func WithManagerLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func NewManager(st store.SessionStore, size int, ttl time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  st,
		logger: log.Default(log.ComponentSession),
		open:   make(map[string]*Controller),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sessions = cache.NewLRUCache[*Controller](size, ttl, cache.WithEvictHook(func(userID string, c *Controller) {
		m.retire(userID, c)
		m.logger.Debug("Session evicted", log.FieldUserID, userID)
	}))
	return m
}

// Get returns the user's controller, loading it on first use. Each hit
// renews the session's idle timeout.
func (m *Manager) Get(ctx context.Context, userID string) (*Controller, error) {
	if c, ok := m.sessions.Get(userID); ok && !c.Closed() {
		m.sessions.Set(userID, c)
		return c, nil
	}
	v, err, _ := m.group.Do(userID, func() (any, error) {
		if c, ok := m.sessions.Get(userID); ok && !c.Closed() {
			return c, nil
		}
		m.mu.Lock()
		prev := m.open[userID]
		m.mu.Unlock()
		if prev != nil {
			m.retire(userID, prev)
		}
		// Detached so a cancelled first caller does not fail the others.
		c, err := Start(context.WithoutCancel(ctx), userID, m.store, m.opts...)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.open[userID] = c
		m.mu.Unlock()
		m.sessions.Set(userID, c)
		m.reportSize()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Controller), nil
}

// Evict closes the user's controller; the next Get reloads from the store.
func (m *Manager) Evict(userID string) {
	m.sessions.Delete(userID)
	m.mu.Lock()
	c := m.open[userID]
	m.mu.Unlock()
	if c != nil {
		m.retire(userID, c)
	}
	m.reportSize()
}

// retire closes c, waiting out a mutation in progress, and forgets it.
func (m *Manager) retire(userID string, c *Controller) {
	c.close()
	m.mu.Lock()
	if m.open[userID] == c {
		delete(m.open, userID)
	}
	m.mu.Unlock()
}

func (m *Manager) Size() int { return m.sessions.Size() }

// Cleaner exposes the session cache to a cache.Janitor.
func (m *Manager) Cleaner() cache.Cleaner { return sizeReporter{m} }

func (m *Manager) reportSize() {
	if m.onSize != nil {
		m.onSize(m.sessions.Size())
	}
}

type sizeReporter struct{ m *Manager }

func (s sizeReporter) CleanExpired() int {
	n := s.m.sessions.CleanExpired()
	s.m.reportSize()
	return n
}
