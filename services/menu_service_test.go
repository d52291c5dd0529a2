package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ordering-svc/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMenuService(t *testing.T) (*MenuService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	return NewMenuService(db), mock, func() { db.Close() }
}

func menuItemRow(id int, name, category string, price float64, stock any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "category", "price", "image_url", "description", "is_available", "stock_quantity", "prep_time", "is_recommended", "display_order", "created_at", "updated_at"}).
		AddRow(id, name, category, price, nil, nil, true, stock, nil, false, 0, time.Now(), time.Now())
}

func TestGetMenuItem_Success(t *testing.T) {
	svc, mock, closeFn := setupMenuService(t)
	defer closeFn()

	mock.ExpectQuery("SELECT (.+) FROM menu_items WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(menuItemRow(1, "Green Curry", "mains", 120, 5))
	mock.ExpectQuery("FROM menu_options o JOIN menu_item_options mio").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "option_type", "is_required", "min_selection", "max_selection", "display_order", "created_at", "updated_at"}))

	item, err := svc.GetMenuItem(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetMenuItem failed: %v", err)
	}
	if item.Name != "Green Curry" {
		t.Errorf("Expected name Green Curry, got %s", item.Name)
	}
	if item.StockQuantity == nil || *item.StockQuantity != 5 {
		t.Errorf("Unexpected stock quantity: %v", item.StockQuantity)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestGetMenuItem_NotFound(t *testing.T) {
	svc, mock, closeFn := setupMenuService(t)
	defer closeFn()

	mock.ExpectQuery("SELECT (.+) FROM menu_items WHERE id = \\$1").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetMenuItem(context.Background(), 99)

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindNotFound {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCreateMenuItem_DefaultDisplayOrder(t *testing.T) {
	svc, mock, closeFn := setupMenuService(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT MAX\\(display_order\\) FROM menu_items WHERE category = \\$1").
		WithArgs("mains").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO menu_items").
		WithArgs("Green Curry", "mains", 120.0, nil, nil, true, nil, nil, false, 4).
		WillReturnRows(menuItemRow(1, "Green Curry", "mains", 120, nil))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM menu_options o JOIN menu_item_options mio").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "option_type", "is_required", "min_selection", "max_selection", "display_order", "created_at", "updated_at"}))

	item, err := svc.CreateMenuItem(context.Background(), models.CreateMenuItemRequest{
		Name:     "Green Curry",
		Category: "mains",
		Price:    120,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem failed: %v", err)
	}
	if item.ID != 1 {
		t.Errorf("Expected item ID 1, got %d", item.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestDeleteMenuItem_NotFound(t *testing.T) {
	svc, mock, closeFn := setupMenuService(t)
	defer closeFn()

	mock.ExpectExec("DELETE FROM menu_items WHERE id = \\$1").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteMenuItem(context.Background(), 99)

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindNotFound {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestReorderOptionChoices_OptionNotFound(t *testing.T) {
	svc, mock, closeFn := setupMenuService(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM menu_options WHERE id = \\$1").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))
	mock.ExpectRollback()

	_, err := svc.ReorderOptionChoices(context.Background(), 99, []models.ChoiceOrder{{ID: 1, DisplayOrder: 0}})

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindNotFound {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
