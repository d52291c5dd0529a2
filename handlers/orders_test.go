package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ordering-svc/audit"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupOrderTest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	// Redis is nil here: the handler skips cache invalidation without it.
	handler := NewOrderHandler(services.NewOrderService(db), nil, audit.NewRecorder(db, logger), logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/orders", handler.CreateOrder)
	router.GET("/orders/:id", handler.GetOrder)
	router.POST("/orders/:id/cancel", handler.CancelOrder)
	router.POST("/orders/:id/complete", handler.CompleteOrder)

	return db, mock, router
}

func TestOrderHandler_GetOrder_Success(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	orderRows := sqlmock.NewRows([]string{"id", "total", "status", "table_number", "created_at", "updated_at"}).
		AddRow(1, 360.0, models.OrderStatusPending, 4, time.Now(), time.Now())
	itemRows := sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price", "options_text", "remark", "created_at"}).
		AddRow(100, 1, 1, "Green Curry", 3, 120.0, nil, nil, time.Now())

	mock.ExpectQuery("SELECT id, total, status, table_number, created_at, updated_at FROM orders WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(orderRows)
	mock.ExpectQuery("SELECT id, order_id, menu_item_id, name, quantity, price, options_text, remark, created_at FROM order_items").
		WithArgs(1).
		WillReturnRows(itemRows)

	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if order.ID != 1 || len(order.Items) != 1 {
		t.Errorf("Unexpected order in response: %+v", order)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_GetOrder_NotFound(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, total, status, table_number, created_at, updated_at FROM orders WHERE id = \\$1").
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/orders/999", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_GetOrder_InvalidID(t *testing.T) {
	db, _, router := setupOrderTest(t)
	defer db.Close()

	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestOrderHandler_CreateOrder_Success(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, is_available, stock_quantity FROM menu_items WHERE id = \\$1 FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_available", "stock_quantity"}).
			AddRow("Green Curry", true, 5))
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(240.0, models.OrderStatusPending, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(1, 1, "Green Curry", 2, 120.0, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, time.Now()))
	mock.ExpectExec("UPDATE menu_items SET stock_quantity = stock_quantity - \\$1").
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	table := 4
	reqBody := models.CreateOrderRequest{
		Total:       240,
		TableNumber: &table,
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: 1, Name: "Green Curry", Quantity: 2, Price: 120},
		},
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_CreateOrder_InsufficientStock(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, is_available, stock_quantity FROM menu_items WHERE id = \\$1 FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_available", "stock_quantity"}).
			AddRow("Green Curry", true, 1))
	mock.ExpectRollback()

	reqBody := models.CreateOrderRequest{
		Total: 240,
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: 1, Name: "Green Curry", Quantity: 2, Price: 120},
		},
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["error"] != "Menu item 'Green Curry' has insufficient stock. Available: 1, Requested: 2" {
		t.Errorf("Unexpected error message: %s", resp["error"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_CreateOrder_EmptyItems(t *testing.T) {
	db, _, router := setupOrderTest(t)
	defer db.Close()

	// Binding rejects an empty items list before any DB call.
	body := []byte(`{"total": 0, "items": []}`)
	req := httptest.NewRequest("POST", "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestOrderHandler_CancelOrder_Success(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id = \\$1 FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery("SELECT menu_item_id, quantity FROM order_items WHERE order_id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "quantity"}).AddRow(1, 2))
	mock.ExpectExec("UPDATE menu_items SET stock_quantity = stock_quantity \\+ \\$1").
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE orders SET status = \\$1, updated_at = CURRENT_TIMESTAMP WHERE id = \\$2").
		WithArgs(models.OrderStatusCancelled, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total", "status", "table_number", "created_at", "updated_at"}).
			AddRow(1, 240.0, "cancelled", nil, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT id, order_id, menu_item_id, name, quantity, price, options_text, remark, created_at FROM order_items").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price", "options_text", "remark", "created_at"}).
			AddRow(100, 1, 1, "Green Curry", 2, 120.0, nil, nil, time.Now()))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := httptest.NewRequest("POST", "/orders/1/cancel", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if order.Status != models.OrderStatusCancelled {
		t.Errorf("Expected status cancelled, got %s", order.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_CompleteOrder_AlreadyCancelled(t *testing.T) {
	db, mock, router := setupOrderTest(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id = \\$1 FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
	mock.ExpectRollback()

	req := httptest.NewRequest("POST", "/orders/1/complete", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
