package models

import (
	"time"

	"gorm.io/gorm"
)

type CartItem struct {
	gorm.Model
	CartID     int     `json:"cartId"`
	FoodItemID uint    `json:"foodItemId"`
	Name       string  `json:"name"`
	Variant    string  `json:"variant"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
}

// Cart is keyed by the table session token a customer gets when scanning the
// table QR code. Expired carts are swept in the background and treated as
// absent: reads miss, writes start a fresh session.
type Cart struct {
	gorm.Model
	RestaurantID uint       `json:"restaurantId"`
	TableID      uint       `json:"tableId"`
	SessionToken string     `json:"sessionToken" gorm:"index"`
	ExpiresAt    time.Time  `json:"expiresAt" gorm:"index"`
	Items        []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (c *Cart) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
