// Package engine is the state manager: it owns the read-decay-write cycle
// over the persisted body, emotions, memories and somatic markers.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/config"
	"github.com/lazypower/sable/internal/llm"
	"github.com/lazypower/sable/internal/logbook"
	"github.com/lazypower/sable/internal/store"
)

// Manager orchestrates every engine operation. Writers are serialized by an
// internal mutex, so one Manager per database is the single writer.
type Manager struct {
	db         *store.DB
	mu         sync.Mutex
	now        func() time.Time
	classifier llm.Classifier
	book       *logbook.Book
	cfg        config.Config
	policy     affect.MemoryPolicy
	obs        Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock injects the time source. Tests pass a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithClassifier sets the text-emotion classifier used by AnalyzeExchange.
func WithClassifier(c llm.Classifier) Option {
	return func(m *Manager) { m.classifier = c }
}

// WithLogbook enables logbook entries linked from memories.
func WithLogbook(b *logbook.Book) Option {
	return func(m *Manager) { m.book = b }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.obs = o
		}
	}
}

// New creates a Manager over db.
func New(db *store.DB, opts ...Option) *Manager {
	m := &Manager{
		db:  db,
		now: time.Now,
		cfg: config.Default(),
		obs: nopObserver{},
	}
	for _, o := range opts {
		o(m)
	}
	m.policy = m.cfg.Memory.Policy()
	return m
}

// Config returns the configuration the manager runs with.
func (m *Manager) Config() config.Config {
	return m.cfg
}

// Logbook returns the attached logbook, or nil.
func (m *Manager) Logbook() *logbook.Book {
	return m.book
}

// clock returns the current time truncated to the storage resolution.
func (m *Manager) clock() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// update runs fn in one transaction under the writer lock.
func (m *Manager) update(ctx context.Context, fn func(c *store.Conn, now time.Time) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	return m.db.Update(ctx, func(c *store.Conn) error {
		return fn(c, now)
	})
}
