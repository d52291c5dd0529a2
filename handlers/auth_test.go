package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ordering-svc/auth"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const userCols = "id, name, email, password_hash, phone, role, status, created_at, updated_at, last_login"

func userRow(id int, name, email, hash string, role models.Role) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "phone", "role", "status", "created_at", "updated_at", "last_login"}).
		AddRow(id, name, email, hash, nil, role, models.UserStatusActive, time.Now(), time.Now(), nil)
}

func setupAuthTest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	tokens := auth.NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)
	handler := NewAuthHandler(services.NewUserService(db), tokens, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	return db, mock, router
}

func TestAuthHandler_Register_Success(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("testuser", "test@example.com", sqlmock.AnyArg(), nil, models.RoleUser, models.UserStatusActive).
		WillReturnRows(userRow(1, "testuser", "test@example.com", "hash", models.RoleUser))

	reqBody := models.RegisterRequest{
		Name:     "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var resp models.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("Expected access and refresh tokens in response")
	}
	if resp.User.Role != models.RoleUser {
		t.Errorf("Expected role user, got %s", resp.User.Role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("testuser", "test@example.com", sqlmock.AnyArg(), nil, models.RoleUser, models.UserStatusActive).
		WillReturnError(&pq.Error{Code: "23505"})

	reqBody := models.RegisterRequest{
		Name:     "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	db, _, router := setupAuthTest(t)
	defer db.Close()

	// No database expectations - binding fails before any DB call.
	reqBody := models.RegisterRequest{
		Name:     "testuser",
		Email:    "test@example.com",
		Password: "short",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE email = \\$1").
		WithArgs("test@example.com").
		WillReturnRows(userRow(1, "testuser", "test@example.com", string(hash), models.RoleUser))
	mock.ExpectQuery("UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"last_login"}).AddRow(time.Now()))

	reqBody := models.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE email = \\$1").
		WithArgs("test@example.com").
		WillReturnRows(userRow(1, "testuser", "test@example.com", string(hash), models.RoleUser))

	reqBody := models.LoginRequest{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestAuthHandler_Login_UnknownEmail(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE email = \\$1").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	reqBody := models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestAuthHandler_Login_BannedAccount(t *testing.T) {
	db, mock, router := setupAuthTest(t)
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "phone", "role", "status", "created_at", "updated_at", "last_login"}).
		AddRow(1, "testuser", "test@example.com", string(hash), nil, models.RoleUser, models.UserStatusBanned, time.Now(), time.Now(), nil)

	mock.ExpectQuery("SELECT " + userCols + " FROM users WHERE email = \\$1").
		WithArgs("test@example.com").
		WillReturnRows(rows)

	reqBody := models.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
