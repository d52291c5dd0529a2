package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ordering-svc/models"
)

// OrderService owns the order lifecycle and keeps menu item stock
// consistent with it. Every operation runs in a single transaction;
// menu item rows are locked with SELECT ... FOR UPDATE before the
// check-then-decrement sequence so that concurrent orders against the
// same item cannot jointly oversell.
type OrderService struct {
	db *sql.DB
}

func NewOrderService(db *sql.DB) *OrderService {
	return &OrderService{db: db}
}

const orderColumns = "id, total, status, table_number, created_at, updated_at"

type lockedMenuItem struct {
	name        string
	isAvailable bool
	stock       *int
}

// CreateOrder validates every line against the live catalog, inserts the
// order with per-line snapshots and decrements finite stock, all in one
// transaction. The caller-supplied total and per-line prices are stored
// as presented and not re-derived from the catalog.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	locked := make(map[int]*lockedMenuItem)
	requested := make(map[int]int)

	for _, line := range req.Items {
		item, ok := locked[line.MenuItemID]
		if !ok {
			item = &lockedMenuItem{}
			err := tx.QueryRowContext(ctx,
				"SELECT name, is_available, stock_quantity FROM menu_items WHERE id = $1 FOR UPDATE",
				line.MenuItemID,
			).Scan(&item.name, &item.isAvailable, &item.stock)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, Validation("Menu item %d not found", line.MenuItemID)
			}
			if err != nil {
				return nil, fmt.Errorf("lock menu item %d: %w", line.MenuItemID, err)
			}
			locked[line.MenuItemID] = item
		}

		if !item.isAvailable {
			return nil, Validation("Menu item '%s' is not available", item.name)
		}
		if item.stock != nil {
			// An administrative update may have driven stock negative;
			// treat that as zero availability rather than crash.
			available := *item.stock
			if available < 0 {
				available = 0
			}
			requested[line.MenuItemID] += line.Quantity
			if available < requested[line.MenuItemID] {
				return nil, Validation(
					"Menu item '%s' has insufficient stock. Available: %d, Requested: %d",
					item.name, available, requested[line.MenuItemID])
			}
		}
	}

	order := &models.Order{
		Total:       req.Total,
		Status:      models.OrderStatusPending,
		TableNumber: req.TableNumber,
	}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO orders (total, status, table_number) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at",
		req.Total, models.OrderStatusPending, req.TableNumber,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range req.Items {
		item := models.OrderItem{
			OrderID:     order.ID,
			MenuItemID:  line.MenuItemID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			OptionsText: line.OptionsText,
			Remark:      line.Remark,
		}
		err = tx.QueryRowContext(ctx,
			"INSERT INTO order_items (order_id, menu_item_id, name, quantity, price, options_text, remark) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at",
			order.ID, line.MenuItemID, line.Name, line.Quantity, line.Price, line.OptionsText, line.Remark,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		order.Items = append(order.Items, item)

		if locked[line.MenuItemID].stock != nil {
			_, err = tx.ExecContext(ctx,
				"UPDATE menu_items SET stock_quantity = stock_quantity - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
				line.Quantity, line.MenuItemID)
			if err != nil {
				return nil, fmt.Errorf("decrement stock for menu item %d: %w", line.MenuItemID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CancelOrder restores stock for every finite-stock line and marks the
// order cancelled. Cancelling twice is rejected so stock is never
// restored twice; completed orders are terminal and cannot be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockOrderStatus(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status == models.OrderStatusCancelled {
		return nil, InvalidTransition("Order is already cancelled")
	}
	if status == models.OrderStatusCompleted {
		return nil, InvalidTransition("Cannot cancel a completed order")
	}

	if err := restoreStock(ctx, tx, orderID); err != nil {
		return nil, err
	}

	order, err := updateOrderStatus(ctx, tx, orderID, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	order.Items, err = orderItemsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CompleteOrder is a terminal, stock-neutral transition: stock was
// committed at creation time and is not returned on completion.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID int) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockOrderStatus(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status == models.OrderStatusCompleted {
		return nil, InvalidTransition("Order is already completed")
	}
	if status == models.OrderStatusCancelled {
		return nil, InvalidTransition("Cannot complete a cancelled order")
	}

	order, err := updateOrderStatus(ctx, tx, orderID, models.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	order.Items, err = orderItemsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// DeleteOrder removes the order and its items. Stock is restored unless
// the order was already cancelled, in which case the cancellation
// already credited it back.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockOrderStatus(ctx, tx, orderID)
	if err != nil {
		return err
	}

	if status != models.OrderStatusCancelled {
		if err := restoreStock(ctx, tx, orderID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("delete order %d: %w", orderID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateOrder changes status and/or table number. A status change goes
// through the same transition rules and stock restoration as the
// dedicated cancel/complete paths.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID int, req models.UpdateOrderRequest) (*models.Order, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, Validation("Invalid order status '%s'", *req.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockOrderStatus(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	newStatus := status
	if req.Status != nil && *req.Status != status {
		if status.Terminal() {
			return nil, InvalidTransition("Cannot change status of a %s order", status)
		}
		newStatus = *req.Status
		if newStatus == models.OrderStatusCancelled {
			if err := restoreStock(ctx, tx, orderID); err != nil {
				return nil, err
			}
		}
	}

	order := &models.Order{}
	err = tx.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, table_number = COALESCE($2, table_number), updated_at = CURRENT_TIMESTAMP WHERE id = $3 RETURNING "+orderColumns,
		newStatus, req.TableNumber, orderID,
	).Scan(&order.ID, &order.Total, &order.Status, &order.TableNumber, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update order %d: %w", orderID, err)
	}
	order.Items, err = orderItemsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	order := &models.Order{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID,
	).Scan(&order.ID, &order.Total, &order.Status, &order.TableNumber, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	order.Items, err = s.orderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrders(ctx context.Context, status string, skip, limit int) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, skip, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Total, &o.Status, &o.TableNumber, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *OrderService) Summary(ctx context.Context) (*models.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("order summary: %w", err)
	}
	defer rows.Close()

	summary := &models.OrderSummary{}
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.TotalOrders += count
		switch status {
		case models.OrderStatusPending:
			summary.PendingOrders = count
		case models.OrderStatusCompleted:
			summary.CompletedOrders = count
		case models.OrderStatusCancelled:
			summary.CancelledOrders = count
		}
	}
	return summary, rows.Err()
}

func (s *OrderService) orderItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, menu_item_id, name, quantity, price, options_text, remark, created_at FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func orderItemsTx(ctx context.Context, tx *sql.Tx, orderID int) ([]models.OrderItem, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, order_id, menu_item_id, name, quantity, price, options_text, remark, created_at FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func scanOrderItems(rows *sql.Rows) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Price, &it.OptionsText, &it.Remark, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func lockOrderStatus(ctx context.Context, tx *sql.Tx, orderID int) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", NotFound("Order not found")
	}
	if err != nil {
		return "", fmt.Errorf("lock order %d: %w", orderID, err)
	}
	return status, nil
}

// restoreStock credits back every finite-stock line of the order. Each
// line is applied independently; repeated menu items on separate lines
// are not merged. Unlimited items (NULL stock) are left untouched.
func restoreStock(ctx context.Context, tx *sql.Tx, orderID int) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT menu_item_id, quantity FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return fmt.Errorf("list order items for restore: %w", err)
	}
	type line struct{ menuItemID, quantity int }
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.menuItemID, &l.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		_, err := tx.ExecContext(ctx,
			"UPDATE menu_items SET stock_quantity = stock_quantity + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND stock_quantity IS NOT NULL",
			l.quantity, l.menuItemID)
		if err != nil {
			return fmt.Errorf("restore stock for menu item %d: %w", l.menuItemID, err)
		}
	}
	return nil
}

func updateOrderStatus(ctx context.Context, tx *sql.Tx, orderID int, status models.OrderStatus) (*models.Order, error) {
	order := &models.Order{}
	err := tx.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING "+orderColumns,
		status, orderID,
	).Scan(&order.ID, &order.Total, &order.Status, &order.TableNumber, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update order %d status: %w", orderID, err)
	}
	return order, nil
}
