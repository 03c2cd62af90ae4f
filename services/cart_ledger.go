package services

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/storage"
)

// TaxRate is applied to the cart subtotal.
const TaxRate = 0.05

// ComputeTotals derives subtotal, tax and total from line items, summing in
// line-item order.
func ComputeTotals(items []models.CartLineItem) models.DerivedTotals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	tax := subtotal * TaxRate
	return models.DerivedTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// CartLedger owns the line items of one session's cart. Every mutation is
// written to the store and then announced; a failed write is logged and the
// in-memory state stays authoritative.
type CartLedger struct {
	mu        sync.Mutex
	sessionID string
	items     []models.CartLineItem
	store     storage.Store
	notifier  Notifier
	log       logrus.FieldLogger

	seq  uint64
	gate deliveryGate
}

// NewCartLedger loads the session's persisted cart. Absent, unreadable or
// malformed data yields an empty cart.
func NewCartLedger(sessionID string, store storage.Store, notifier Notifier, log logrus.FieldLogger) *CartLedger {
	c := &CartLedger{
		sessionID: sessionID,
		store:     store,
		notifier:  orNoop(notifier),
		log:       orStdLogger(log).WithField("session_id", sessionID),
	}
	c.items = c.load()
	return c
}

func (c *CartLedger) key() string {
	return storage.SessionKey(c.sessionID, storage.KeyCartItems)
}

func (c *CartLedger) load() []models.CartLineItem {
	items := []models.CartLineItem{}

	raw, ok, err := c.store.Get(c.key())
	if err != nil {
		c.log.WithError(err).Error("Error loading cart from store")
		return items
	}
	if !ok || raw == "" {
		return items
	}

	var saved []models.CartLineItem
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		c.log.WithError(err).Warn("Discarding malformed cart data")
		return items
	}

	// Normalise what was stored: one line per id, quantity >= 1.
	index := make(map[string]int, len(saved))
	for _, item := range saved {
		if item.Quantity < 1 {
			continue
		}
		if i, exists := index[item.ID]; exists {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	return items
}

// persist must be called with c.mu held so writes land in mutation order.
func (c *CartLedger) persist() {
	data, err := json.Marshal(c.items)
	if err != nil {
		c.log.WithError(err).Error("Error encoding cart")
		return
	}
	if err := c.store.Set(c.key(), string(data)); err != nil {
		c.log.WithError(err).Error("Error saving cart to store")
	}
}

// commit persists and snapshots under the lock, then releases it and
// notifies observers with the post-mutation state.
func (c *CartLedger) commit() {
	c.persist()
	snap := c.snapshotLocked()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	c.gate.deliver(seq, c.notifier, Event{Type: EventCartUpdate, SessionID: c.sessionID, Data: snap})
}

func (c *CartLedger) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem merges the candidate into an existing line with the same id or
// appends a new line with quantity 1.
func (c *CartLedger) AddItem(candidate models.CartCandidate) {
	c.mu.Lock()
	if i := c.indexOf(candidate.ID); i >= 0 {
		c.items[i].Quantity++
	} else {
		c.items = append(c.items, models.CartLineItem{
			ID:       candidate.ID,
			Title:    candidate.Title,
			Price:    candidate.Price,
			Quantity: 1,
			Image:    candidate.Image,
			Type:     candidate.Type,
		})
	}
	c.commit()
}

// RemoveItem deletes the line with the given id, if any.
func (c *CartLedger) RemoveItem(id string) {
	c.mu.Lock()
	c.removeLocked(id)
	c.commit()
}

func (c *CartLedger) removeLocked(id string) {
	if i := c.indexOf(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// SetQuantity sets the quantity of an existing line. Zero or negative
// quantities remove the line; unknown ids are ignored.
func (c *CartLedger) SetQuantity(id string, quantity int) {
	c.mu.Lock()
	if quantity <= 0 {
		c.removeLocked(id)
	} else if i := c.indexOf(id); i >= 0 {
		c.items[i].Quantity = quantity
	}
	c.commit()
}

func (c *CartLedger) Clear() {
	c.mu.Lock()
	c.items = []models.CartLineItem{}
	c.commit()
}

// Items returns a copy of the line items in cart order.
func (c *CartLedger) Items() []models.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

// Totals recomputes the derived totals from the current line items.
func (c *CartLedger) Totals() models.DerivedTotals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.items)
}

// Snapshot returns items and totals read under the same lock.
func (c *CartLedger) Snapshot() models.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *CartLedger) snapshotLocked() models.CartSnapshot {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return models.CartSnapshot{
		Items:     c.copyItems(),
		ItemCount: count,
		Totals:    ComputeTotals(c.items),
	}
}

func (c *CartLedger) copyItems() []models.CartLineItem {
	out := make([]models.CartLineItem, len(c.items))
	copy(out, c.items)
	return out
}
