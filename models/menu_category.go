package models

// CategoryCount is one entry of the category sidebar.
type CategoryCount struct {
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}
