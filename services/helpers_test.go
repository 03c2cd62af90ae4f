package services

import (
	"sync"

	"github.com/yeremiapane/restaurant-storefront/models"
)

// eventRecorder collects notifications for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func testCatalog() []models.Product {
	return []models.Product{
		{ID: "1", Title: "Veg Salad", Price: 8, Type: models.FoodTypeVeg, Category: "Salads", Featured: true},
		{ID: "2", Title: "Beef Burger", Price: 12, Discount: 10, Type: models.FoodTypeNonVeg, Category: "Burgers", Featured: true},
		{ID: "3", Title: "Paneer Pizza", Price: 14, Discount: 15, Type: models.FoodTypeVeg, Category: "Pizza"},
		{ID: "4", Title: "Chicken Burger", Price: 10, Type: models.FoodTypeNonVeg, Category: "Burgers", Featured: true},
		{ID: "5", Title: "Veggie Burger", Price: 9, Discount: 20, Type: models.FoodTypeVeg, Category: "Burgers"},
	}
}

func candidate(id string, price float64) models.CartCandidate {
	return models.CartCandidate{ID: id, Title: "Item " + id, Price: price, Type: models.FoodTypeVeg}
}
