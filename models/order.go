package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type Order struct {
	ID          int         `json:"id"`
	Total       float64     `json:"total"`
	Status      OrderStatus `json:"status"`
	TableNumber *int        `json:"table_number,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Items []OrderItem `json:"items"`
}

// OrderItem is a snapshot of a menu item at order time. Name, price,
// options and remark are frozen text, decoupled from later catalog edits.
type OrderItem struct {
	ID          int       `json:"id"`
	OrderID     int       `json:"order_id"`
	MenuItemID  int       `json:"menu_item_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	OptionsText *string   `json:"options_text,omitempty"`
	Remark      *string   `json:"remark,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateOrderItemRequest struct {
	MenuItemID  int     `json:"menu_item_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"gte=0"`
	OptionsText *string `json:"options_text"`
	Remark      *string `json:"remark"`
}

type CreateOrderRequest struct {
	Total       float64                  `json:"total" binding:"gte=0"`
	TableNumber *int                     `json:"table_number"`
	Items       []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Status      *OrderStatus `json:"status"`
	TableNumber *int         `json:"table_number"`
}

type OrderSummary struct {
	TotalOrders     int `json:"total_orders"`
	PendingOrders   int `json:"pending_orders"`
	CompletedOrders int `json:"completed_orders"`
	CancelledOrders int `json:"cancelled_orders"`
}
