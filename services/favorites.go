package services

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/storage"
)

// FavoriteSet owns the favorited product ids of one session and resolves
// them against the session's catalog snapshot.
type FavoriteSet struct {
	mu        sync.Mutex
	sessionID string
	ids       []string
	members   map[string]struct{}
	catalog   []models.Product
	store     storage.Store
	notifier  Notifier
	log       logrus.FieldLogger

	seq  uint64
	gate deliveryGate
}

func NewFavoriteSet(sessionID string, catalog []models.Product, store storage.Store, notifier Notifier, log logrus.FieldLogger) *FavoriteSet {
	f := &FavoriteSet{
		sessionID: sessionID,
		members:   make(map[string]struct{}),
		catalog:   catalog,
		store:     store,
		notifier:  orNoop(notifier),
		log:       orStdLogger(log).WithField("session_id", sessionID),
	}
	f.ids = f.load()
	return f
}

func (f *FavoriteSet) key() string {
	return storage.SessionKey(f.sessionID, storage.KeyFavorites)
}

func (f *FavoriteSet) load() []string {
	ids := []string{}

	raw, ok, err := f.store.Get(f.key())
	if err != nil {
		f.log.WithError(err).Error("Error loading favorites from store")
		return ids
	}
	if !ok || raw == "" {
		return ids
	}

	var saved []string
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		f.log.WithError(err).Warn("Discarding malformed favorites data")
		return ids
	}
	for _, id := range saved {
		if _, dup := f.members[id]; dup {
			continue
		}
		f.members[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (f *FavoriteSet) persist() {
	data, err := json.Marshal(f.ids)
	if err != nil {
		f.log.WithError(err).Error("Error encoding favorites")
		return
	}
	if err := f.store.Set(f.key(), string(data)); err != nil {
		f.log.WithError(err).Error("Error saving favorites to store")
	}
}

func (f *FavoriteSet) commit() {
	f.persist()
	ids := f.copyIDs()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	f.gate.deliver(seq, f.notifier, Event{Type: EventFavoritesUpdate, SessionID: f.sessionID, Data: ids})
}

// Add marks a product as favorite. Adding twice is a no-op.
func (f *FavoriteSet) Add(productID string) {
	f.mu.Lock()
	if _, ok := f.members[productID]; ok {
		f.mu.Unlock()
		return
	}
	f.members[productID] = struct{}{}
	f.ids = append(f.ids, productID)
	f.commit()
}

// Remove unmarks a product. Removing an absent id is a no-op.
func (f *FavoriteSet) Remove(productID string) {
	f.mu.Lock()
	if _, ok := f.members[productID]; !ok {
		f.mu.Unlock()
		return
	}
	delete(f.members, productID)
	for i, id := range f.ids {
		if id == productID {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			break
		}
	}
	f.commit()
}

func (f *FavoriteSet) IsFavorite(productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[productID]
	return ok
}

// IDs returns the favorite ids in insertion order.
func (f *FavoriteSet) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyIDs()
}

// List returns the favorite products in catalog order. Ids that are not in
// the catalog are kept in the set but not listed.
func (f *FavoriteSet) List() []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Product{}
	for _, p := range f.catalog {
		if _, ok := f.members[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *FavoriteSet) copyIDs() []string {
	out := make([]string, len(f.ids))
	copy(out, f.ids)
	return out
}
