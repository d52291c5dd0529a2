package services

import (
	"context"
	"errors"
	"testing"

	"ordering-svc/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	return NewUserService(db), mock, func() { db.Close() }
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc, _, closeFn := setupUserService(t)
	defer closeFn()

	_, err := svc.CreateUser(context.Background(), models.CreateUserRequest{
		Name:     "testuser",
		Email:    "test@example.com",
		Password: "password123",
		Role:     "root",
	})

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestUpdateRole_InvalidRole(t *testing.T) {
	svc, _, closeFn := setupUserService(t)
	defer closeFn()

	_, err := svc.UpdateRole(context.Background(), 1, "root")

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestSoftDelete_NotFound(t *testing.T) {
	svc, mock, closeFn := setupUserService(t)
	defer closeFn()

	mock.ExpectExec("UPDATE users SET is_deleted = TRUE").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.SoftDelete(context.Background(), 99)

	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindNotFound {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestRolesSummary(t *testing.T) {
	svc, mock, closeFn := setupUserService(t)
	defer closeFn()

	mock.ExpectQuery("SELECT role, COUNT\\(\\*\\) FROM users WHERE is_deleted = FALSE GROUP BY role").
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow("admin", 2).
			AddRow("superadmin", 1).
			AddRow("user", 10))

	summary, err := svc.RolesSummary(context.Background())
	if err != nil {
		t.Fatalf("RolesSummary failed: %v", err)
	}
	if summary.TotalUsers != 13 {
		t.Errorf("Expected 13 total users, got %d", summary.TotalUsers)
	}
	if len(summary.ByRole) != 3 {
		t.Errorf("Expected 3 role buckets, got %d", len(summary.ByRole))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
