package models

import (
	"fmt"
	"math"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// forwardStatus maps each status to the only status that may follow it on the
// normal kitchen path. cancelled is reachable from any non-terminal status.
var forwardStatus = map[OrderStatus]OrderStatus{
	OrderPending:   OrderPreparing,
	OrderPreparing: OrderReady,
	OrderReady:     OrderServed,
	OrderServed:    OrderCompleted,
}

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether target may follow s: one step along the
// forward chain, or cancellation while not terminal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) error {
	if !s.Valid() || !target.Valid() {
		return &InvalidTransitionError{From: s, To: target}
	}
	if target == OrderCancelled && !s.Terminal() {
		return nil
	}
	if forwardStatus[s] == target {
		return nil
	}
	return &InvalidTransitionError{From: s, To: target}
}

type Order struct {
	gorm.Model
	RestaurantID   uint        `json:"restaurantId" gorm:"index:idx_orders_restaurant_no,unique"`
	TableID        uint        `json:"tableId"`
	OrderNo        int         `json:"orderNo" gorm:"index:idx_orders_restaurant_no,unique"`
	Subtotal       float64     `json:"subtotal"`
	TaxAmount      float64     `json:"taxAmount"`
	DiscountAmount float64     `json:"discountAmount"`
	TotalAmount    float64     `json:"totalAmount"`
	IsPaid         bool        `json:"isPaid"`
	Status         OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	KitchenStaffID *uint       `json:"kitchenStaffId"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	gorm.Model
	OrderID    uint    `json:"orderId"`
	FoodItemID uint    `json:"foodItemId"`
	Name       string  `json:"name"`
	Variant    string  `json:"variant"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	FinalPrice float64 `json:"finalPrice"`
}

// OrderNoCounter holds the last order number handed out for one restaurant.
// It is only ever touched inside the order-creation transaction.
type OrderNoCounter struct {
	gorm.Model
	RestaurantID uint `json:"restaurantId" gorm:"uniqueIndex"`
	LastNo       int  `json:"lastNo"`
}

const amountTolerance = 0.01

// ValidateAmounts checks that line totals sum to the subtotal and that the
// grand total matches subtotal + tax - discount, within a cent.
func (o *Order) ValidateAmounts() error {
	var lineSum float64
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %q has non-positive quantity %d", item.Name, item.Quantity)
		}
		if item.UnitPrice < 0 || item.FinalPrice < 0 {
			return fmt.Errorf("item %q has a negative price", item.Name)
		}
		lineSum += item.FinalPrice
	}
	if math.Abs(lineSum-o.Subtotal) > amountTolerance {
		return fmt.Errorf("line totals %.2f do not match subtotal %.2f", lineSum, o.Subtotal)
	}
	want := o.Subtotal + o.TaxAmount - o.DiscountAmount
	if math.Abs(want-o.TotalAmount) > amountTolerance {
		return fmt.Errorf("total %.2f does not match subtotal + tax - discount = %.2f", o.TotalAmount, want)
	}
	return nil
}
