package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	gorm.Model
	OrderID          uint           `json:"orderId"`
	GatewayOrderID   string         `json:"gatewayOrderId" gorm:"index"`
	GatewayPaymentID string         `json:"gatewayPaymentId"`
	TransactionID    string         `json:"transactionId"`
	PaymentGateway   string         `json:"paymentGateway"`
	Amount           float64        `json:"amount"`
	Status           PaymentStatus  `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Notes            datatypes.JSON `json:"notes"`
}
