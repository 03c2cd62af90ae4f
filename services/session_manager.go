package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/storage"
)

// Session bundles the state owners of one storefront visitor. Its catalog
// snapshot is fixed when the session is materialised.
type Session struct {
	ID        string
	Catalog   []models.Product
	Cart      *CartLedger
	Favorites *FavoriteSet
	Menu      *MenuFilter

	mu       sync.Mutex
	lastSeen time.Time
}

// FindProduct looks a product up in the session's catalog snapshot.
func (s *Session) FindProduct(id string) (models.Product, error) {
	for _, p := range s.Catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager creates sessions on first use and evicts idle ones. Evicted
// sessions lose only their menu selection; cart and favorites are reloaded
// from the store on the next request.
type SessionManager struct {
	Store       storage.Store
	Catalog     *CatalogService
	Notifier    Notifier
	Log         logrus.FieldLogger
	IdleTimeout time.Duration
	Interval    time.Duration
	StopChan    chan struct{}
	// OnSweep runs after each eviction pass.
	OnSweep func()

	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*Session
	stopOnce sync.Once
}

func NewSessionManager(store storage.Store, catalog *CatalogService, notifier Notifier, log logrus.FieldLogger) *SessionManager {
	return &SessionManager{
		Store:       store,
		Catalog:     catalog,
		Notifier:    orNoop(notifier),
		Log:         orStdLogger(log),
		IdleTimeout: 30 * time.Minute,
		Interval:    1 * time.Minute,
		StopChan:    make(chan struct{}),
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session for id, loading its persisted state if it is not
// in memory yet.
func (m *SessionManager) Get(id string) *Session {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s
	}

	catalog := m.Catalog.Products()
	s := &Session{
		ID:        id,
		Catalog:   catalog,
		Cart:      NewCartLedger(id, m.Store, m.Notifier, m.Log),
		Favorites: NewFavoriteSet(id, catalog, m.Store, m.Notifier, m.Log),
		Menu:      NewMenuFilter(id, catalog, m.Notifier),
		lastSeen:  now,
	}
	m.sessions[id] = s
	m.Log.WithField("session_id", id).Debug("Session materialised")
	return s
}

func (m *SessionManager) Evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.EvictIdle()
				if m.OnSweep != nil {
					m.OnSweep()
				}
			case <-m.StopChan:
				return
			}
		}
	}()
}

func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.StopChan) })
}

// EvictIdle drops sessions not seen within IdleTimeout and returns how many
// were dropped.
func (m *SessionManager) EvictIdle() int {
	cutoff := m.now().Add(-m.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.Log.WithField("count", evicted).Info("Evicted idle sessions")
	}
	return evicted
}
