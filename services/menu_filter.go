package services

import (
	"strings"
	"sync"

	"github.com/yeremiapane/restaurant-storefront/models"
)

// AllCategories is the reserved category label that matches every product.
const AllCategories = "All"

// MenuSnapshot is what menu observers receive after a filter change.
type MenuSnapshot struct {
	SearchText string                 `json:"search_text"`
	Category   string                 `json:"category"`
	Items      []models.Product       `json:"items"`
	Categories []models.CategoryCount `json:"categories"`
}

// MenuFilter derives the visible products of a session's catalog snapshot
// from the current search text and category.
type MenuFilter struct {
	mu        sync.Mutex
	sessionID string
	catalog   []models.Product
	search    string
	category  string
	notifier  Notifier

	seq  uint64
	gate deliveryGate
}

func NewMenuFilter(sessionID string, catalog []models.Product, notifier Notifier) *MenuFilter {
	return &MenuFilter{
		sessionID: sessionID,
		catalog:   catalog,
		category:  AllCategories,
		notifier:  orNoop(notifier),
	}
}

func (m *MenuFilter) SetSearchText(q string) {
	m.mu.Lock()
	m.search = q
	m.commit()
}

// SetCategory selects one category. An empty label selects AllCategories.
func (m *MenuFilter) SetCategory(label string) {
	m.mu.Lock()
	if label == "" {
		label = AllCategories
	}
	m.category = label
	m.commit()
}

func (m *MenuFilter) commit() {
	snap := m.snapshotLocked()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.gate.deliver(seq, m.notifier, Event{Type: EventMenuUpdate, SessionID: m.sessionID, Data: snap})
}

func (m *MenuFilter) SearchText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

func (m *MenuFilter) Category() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}

// VisibleItems returns the catalog products matching the category and the
// search text, in catalog order.
func (m *MenuFilter) VisibleItems() []models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleLocked()
}

// CategoryCounts returns AllCategories first, then every catalog category in
// order of first appearance, each with its catalog item count.
func (m *MenuFilter) CategoryCounts() []models.CategoryCount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countsLocked()
}

func (m *MenuFilter) Snapshot() MenuSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *MenuFilter) snapshotLocked() MenuSnapshot {
	return MenuSnapshot{
		SearchText: m.search,
		Category:   m.category,
		Items:      m.visibleLocked(),
		Categories: m.countsLocked(),
	}
}

func (m *MenuFilter) visibleLocked() []models.Product {
	q := strings.ToLower(m.search)
	out := []models.Product{}
	for _, p := range m.catalog {
		if m.category != AllCategories && p.Category != m.category {
			continue
		}
		if q != "" && !matchesMenuQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesMenuQuery expects q already lowercased. Titles match on any
// substring; the food type matches on its prefix so "veg" does not pull in
// "Non Veg" dishes.
func matchesMenuQuery(p models.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.HasPrefix(strings.ToLower(p.Type), q)
}

func (m *MenuFilter) countsLocked() []models.CategoryCount {
	counts := []models.CategoryCount{{
		Label:  AllCategories,
		Count:  len(m.catalog),
		Active: m.category == AllCategories,
	}}
	index := make(map[string]int)
	for _, p := range m.catalog {
		// Products filed under the reserved label are only counted by the
		// AllCategories row.
		if p.Category == AllCategories {
			continue
		}
		if i, ok := index[p.Category]; ok {
			counts[i].Count++
			continue
		}
		index[p.Category] = len(counts)
		counts = append(counts, models.CategoryCount{
			Label:  p.Category,
			Count:  1,
			Active: p.Category == m.category,
		})
	}
	return counts
}
