package models

// CartLineItem is one product entry in a cart. The JSON shape is also the
// persisted shape, so renaming a tag breaks carts saved by older builds.
type CartLineItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Type     string  `json:"type"`
}

// CartCandidate is a line item without a quantity.
type CartCandidate struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Type  string  `json:"type"`
}

type DerivedTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type CartSnapshot struct {
	Items     []CartLineItem `json:"items"`
	ItemCount int            `json:"item_count"`
	Totals    DerivedTotals  `json:"totals"`
}
