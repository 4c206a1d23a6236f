package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Restaurant struct {
	gorm.Model
	Name     string     `json:"name" binding:"required"`
	Slug     string     `json:"slug" gorm:"uniqueIndex"`
	OwnerID  uint       `json:"ownerId"`
	Currency string     `json:"currency"`
	TaxRate  float64    `json:"taxRate"`
	Tables   []Table    `json:"tables" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	Menu     []FoodItem `json:"menu" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
}

type Table struct {
	gorm.Model
	RestaurantID uint   `json:"restaurantId"`
	Number       int    `json:"number"`
	// QRToken is embedded in the QR code printed on the table.
	QRToken string `json:"qrToken" gorm:"uniqueIndex"`
}

type FoodItem struct {
	gorm.Model
	RestaurantID uint           `json:"restaurantId"`
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Price        float64        `json:"price"`
	IsAvailable  bool           `json:"isAvailable"`
	Variants     datatypes.JSON `json:"variants"`
}
