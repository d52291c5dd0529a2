package models

import "testing"

func TestOrderStatusValid(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled} {
		if !status.Valid() {
			t.Errorf("Expected status %s to be valid", status)
		}
	}
	if OrderStatus("shipped").Valid() {
		t.Error("Expected unknown status to be invalid")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusPending.Terminal() {
		t.Error("Expected pending to be non-terminal")
	}
	if !OrderStatusCompleted.Terminal() {
		t.Error("Expected completed to be terminal")
	}
	if !OrderStatusCancelled.Terminal() {
		t.Error("Expected cancelled to be terminal")
	}
}
