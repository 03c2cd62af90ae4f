package models

import "time"

// Food types as shown on the menu badges.
const (
	FoodTypeVeg    = "Veg"
	FoodTypeNonVeg = "Non Veg"
)

type NutritionalInfo struct {
	Calories float64 `json:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" validate:"gte=0"`
}

// Product is a catalog entry. Sessions read products from an immutable
// snapshot, the admin API is the only writer.
type Product struct {
	ID              string           `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,max=64"`
	Position        int              `gorm:"not null;default:0;index" json:"position"`
	Title           string           `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Price           float64          `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	Discount        int              `gorm:"not null;default:0" json:"discount,omitempty" validate:"gte=0,lte=100"`
	Type            string           `gorm:"type:varchar(20);not null" json:"type" validate:"oneof='Veg' 'Non Veg'"`
	Category        string           `gorm:"type:varchar(100);not null;index" json:"category" validate:"required,max=100"`
	Image           string           `gorm:"type:varchar(255)" json:"image"`
	Description     string           `gorm:"type:text" json:"description,omitempty"`
	Featured        bool             `gorm:"not null;default:false" json:"featured"`
	Ingredients     []string         `gorm:"serializer:json" json:"ingredients,omitempty"`
	NutritionalInfo *NutritionalInfo `gorm:"serializer:json" json:"nutritional_info,omitempty" validate:"omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// DiscountedPrice returns the unit price after the percentage discount.
func (p Product) DiscountedPrice() float64 {
	if p.Discount == 0 {
		return p.Price
	}
	return p.Price - (p.Price*float64(p.Discount))/100
}

// CartCandidate builds the line item payload added to a cart for this product.
func (p Product) CartCandidate() CartCandidate {
	return CartCandidate{
		ID:    p.ID,
		Title: p.Title,
		Price: p.DiscountedPrice(),
		Image: p.Image,
		Type:  p.Type,
	}
}
