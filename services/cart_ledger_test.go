package services

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/storage"
)

func newTestLedger(store storage.Store, n Notifier) *CartLedger {
	log, _ := logtest.NewNullLogger()
	return NewCartLedger("s1", store, n, log)
}

func TestCartLedgerDuplicateAddMerges(t *testing.T) {
	c := newTestLedger(storage.NewMemoryStore(), nil)

	c.AddItem(candidate("1", 10))
	c.AddItem(candidate("1", 10))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	totals := c.Totals()
	assert.InDelta(t, 20.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 1.0, totals.Tax, 1e-9)
	assert.InDelta(t, 21.0, totals.Total, 1e-9)
}

func TestCartLedgerTotals(t *testing.T) {
	tests := []struct {
		name  string
		items []models.CartCandidate
		adds  []int
	}{
		{name: "empty"},
		{name: "single", items: []models.CartCandidate{candidate("a", 4.99)}, adds: []int{1}},
		{name: "mixed", items: []models.CartCandidate{candidate("a", 4.99), candidate("b", 0.1), candidate("c", 13.37)}, adds: []int{3, 7, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestLedger(storage.NewMemoryStore(), nil)
			for i, item := range tt.items {
				for n := 0; n < tt.adds[i]; n++ {
					c.AddItem(item)
				}
			}

			var want float64
			for _, item := range c.Items() {
				want += item.Price * float64(item.Quantity)
			}
			totals := c.Totals()
			assert.Equal(t, want, totals.Subtotal)
			assert.LessOrEqual(t, math.Abs(totals.Tax-totals.Subtotal*0.05), 1e-9)
			assert.Equal(t, totals.Subtotal+totals.Tax, totals.Total)
		})
	}
}

func TestCartLedgerSetQuantity(t *testing.T) {
	c := newTestLedger(storage.NewMemoryStore(), nil)
	c.AddItem(candidate("1", 10))
	c.AddItem(candidate("2", 5))

	c.SetQuantity("2", 4)
	assert.Equal(t, 4, c.Items()[1].Quantity)

	c.SetQuantity("missing", 3)
	assert.Len(t, c.Items(), 2)

	c.SetQuantity("1", 0)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)

	c.SetQuantity("2", -1)
	assert.Empty(t, c.Items())
}

func TestCartLedgerRemoveAndClear(t *testing.T) {
	c := newTestLedger(storage.NewMemoryStore(), nil)
	c.AddItem(candidate("1", 10))
	c.AddItem(candidate("2", 5))
	c.AddItem(candidate("3", 1))

	c.RemoveItem("2")
	c.RemoveItem("nope")
	ids := []string{}
	for _, item := range c.Items() {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids)

	c.Clear()
	assert.Empty(t, c.Items())
	assert.Equal(t, models.DerivedTotals{}, c.Totals())
}

func TestCartLedgerRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newTestLedger(store, nil)
	c.AddItem(candidate("3", 2.5))
	c.AddItem(candidate("1", 10))
	c.AddItem(candidate("3", 2.5))
	c.SetQuantity("1", 5)

	reloaded := newTestLedger(store, nil)
	assert.Equal(t, c.Items(), reloaded.Items())
}

func TestCartLedgerMalformedData(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{{{"},
		{name: "wrong shape", raw: `{"id":"1"}`},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(storage.SessionKey("s1", storage.KeyCartItems), tt.raw))

			c := newTestLedger(store, nil)
			assert.Empty(t, c.Items())
			assert.Equal(t, models.DerivedTotals{}, c.Totals())
		})
	}
}

func TestCartLedgerNormalisesStoredItems(t *testing.T) {
	store := storage.NewMemoryStore()
	raw, err := json.Marshal([]models.CartLineItem{
		{ID: "1", Price: 10, Quantity: 1},
		{ID: "2", Price: 3, Quantity: 0},
		{ID: "1", Price: 10, Quantity: 2},
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(storage.SessionKey("s1", storage.KeyCartItems), string(raw)))

	items := newTestLedger(store, nil).Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCartLedgerStoreFailureKeepsMemoryState(t *testing.T) {
	store := storage.NewMemoryStore()
	log, hook := logtest.NewNullLogger()
	c := NewCartLedger("s1", store, nil, log)

	store.Close()
	c.AddItem(candidate("1", 10))

	assert.Len(t, c.Items(), 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestCartLedgerNotifiesPostMutationState(t *testing.T) {
	rec := &eventRecorder{}
	c := newTestLedger(storage.NewMemoryStore(), rec)

	c.AddItem(candidate("1", 10))
	c.AddItem(candidate("1", 10))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventCartUpdate, events[1].Type)
	assert.Equal(t, "s1", events[1].SessionID)

	snap, ok := events[1].Data.(models.CartSnapshot)
	require.True(t, ok)
	assert.Equal(t, 2, snap.ItemCount)
	assert.InDelta(t, 21.0, snap.Totals.Total, 1e-9)
}

func TestCartLedgerObserverCanReadBack(t *testing.T) {
	var c *CartLedger
	var seen models.DerivedTotals
	c = newTestLedger(storage.NewMemoryStore(), NotifierFunc(func(Event) {
		// Must not deadlock: the ledger releases its lock before notifying.
		seen = c.Totals()
	}))

	c.AddItem(candidate("1", 10))
	assert.InDelta(t, 10.5, seen.Total, 1e-9)
}

func TestCartLedgerConcurrentNotificationsEndOnLatest(t *testing.T) {
	rec := &eventRecorder{}
	started := make(chan struct{})
	var once sync.Once
	slowFirst := NotifierFunc(func(e Event) {
		first := false
		once.Do(func() {
			first = true
			close(started)
		})
		if first {
			time.Sleep(50 * time.Millisecond)
		}
		rec.Notify(e)
	})
	c := newTestLedger(storage.NewMemoryStore(), slowFirst)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.AddItem(candidate("1", 10))
	}()
	<-started
	c.AddItem(candidate("1", 10))
	wg.Wait()

	snap, ok := rec.last().Data.(models.CartSnapshot)
	require.True(t, ok)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.InDelta(t, 20.0, snap.Totals.Subtotal, 1e-9)
	assert.Equal(t, c.Snapshot(), snap)
}
