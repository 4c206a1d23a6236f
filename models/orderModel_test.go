package models

import (
	"errors"
	"testing"
)

func TestOrderStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to OrderStatus
	}{
		{OrderPending, OrderPreparing},
		{OrderPreparing, OrderReady},
		{OrderReady, OrderServed},
		{OrderServed, OrderCompleted},
		{OrderPending, OrderCancelled},
		{OrderPreparing, OrderCancelled},
		{OrderReady, OrderCancelled},
		{OrderServed, OrderCancelled},
	}
	for _, tc := range allowed {
		if err := tc.from.CanTransitionTo(tc.to); err != nil {
			t.Errorf("%s -> %s should be allowed, got %v", tc.from, tc.to, err)
		}
	}

	rejected := []struct {
		from, to OrderStatus
	}{
		{OrderCompleted, OrderPending},
		{OrderCompleted, OrderCancelled},
		{OrderCancelled, OrderPending},
		{OrderCancelled, OrderCancelled},
		{OrderPending, OrderReady},
		{OrderPending, OrderCompleted},
		{OrderReady, OrderPreparing},
		{OrderServed, OrderPending},
		{OrderPending, OrderStatus("bogus")},
		{OrderStatus("bogus"), OrderPreparing},
	}
	for _, tc := range rejected {
		err := tc.from.CanTransitionTo(tc.to)
		if err == nil {
			t.Errorf("%s -> %s should be rejected", tc.from, tc.to)
			continue
		}
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("%s -> %s: expected InvalidTransitionError, got %T", tc.from, tc.to, err)
			continue
		}
		if invalid.From != tc.from || invalid.To != tc.to {
			t.Errorf("error should carry from=%s to=%s, got from=%s to=%s", tc.from, tc.to, invalid.From, invalid.To)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []OrderStatus{OrderCompleted, OrderCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestValidateAmounts(t *testing.T) {
	order := Order{
		Subtotal:       30,
		TaxAmount:      3,
		DiscountAmount: 5,
		TotalAmount:    28,
		Items: []OrderItem{
			{Name: "Masala Dosa", Quantity: 2, UnitPrice: 10, FinalPrice: 20},
			{Name: "Filter Coffee", Quantity: 1, UnitPrice: 10, FinalPrice: 10},
		},
	}
	if err := order.ValidateAmounts(); err != nil {
		t.Fatalf("expected valid amounts, got %v", err)
	}

	bad := order
	bad.TotalAmount = 30
	if err := bad.ValidateAmounts(); err == nil {
		t.Error("total mismatch should be rejected")
	}

	bad = order
	bad.Subtotal = 25
	if err := bad.ValidateAmounts(); err == nil {
		t.Error("line total mismatch should be rejected")
	}

	bad = order
	bad.Items[0].Quantity = 0
	if err := bad.ValidateAmounts(); err == nil {
		t.Error("zero quantity should be rejected")
	}
}
