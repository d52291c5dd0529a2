package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ordering-svc/auth"
	"ordering-svc/models"

	"github.com/lib/pq"
)

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, name, email, password_hash, phone, role, status, created_at, updated_at, last_login"

// notDeleted is the single soft-delete predicate; every user lookup
// goes through it so deleted rows never leak out of this package.
const notDeleted = " AND is_deleted = FALSE"

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.insertUser(ctx, req.Name, req.Email, hash, req.Phone, models.RoleUser)
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, Validation("Invalid role '%s'", role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.insertUser(ctx, req.Name, req.Email, hash, req.Phone, role)
}

func (s *UserService) insertUser(ctx context.Context, name, email, hash, phone string, role models.Role) (*models.User, error) {
	var phoneArg *string
	if phone != "" {
		phoneArg = &phone
	}

	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone, role, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+userColumns,
		name, email, hash, phoneArg, role, models.UserStatusActive,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, Duplicate("Email %s already registered", email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials and account status, and stamps
// last_login on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		var appErr *Error
		if errors.As(err, &appErr) && appErr.Kind == KindNotFound {
			return nil, Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, Unauthorized("Invalid email or password")
	}
	switch user.Status {
	case models.UserStatusBanned:
		return nil, Forbidden("User account is banned")
	case models.UserStatusInactive:
		return nil, Forbidden("User account is inactive")
	}

	err = s.db.QueryRowContext(ctx,
		"UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1 RETURNING last_login",
		user.ID,
	).Scan(&user.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1"+notDeleted, userID)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1"+notDeleted, email)
}

func (s *UserService) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone,
		&user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context, role string, skip, limit int) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE is_deleted = FALSE"
	args := []any{}
	if role != "" {
		query += " AND role = $1"
		args = append(args, role)
	}
	query += fmt.Sprintf(" ORDER BY id OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, skip, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	var name, phone *string
	if req.Name != "" {
		name = &req.Name
	}
	if req.Phone != "" {
		phone = &req.Phone
	}

	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"UPDATE users SET name = COALESCE($1, name), phone = COALESCE($2, phone), updated_at = CURRENT_TIMESTAMP WHERE id = $3"+notDeleted+" RETURNING "+userColumns,
		name, phone, userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return Validation("Old password is incorrect")
	}
	return s.setPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without checking the old one.
// Reserved for the superadmin surface.
func (s *UserService) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, userID int, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"+notDeleted,
		hash, userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *UserService) UpdateRole(ctx context.Context, userID int, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, Validation("Invalid role '%s'", role)
	}

	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"UPDATE users SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"+notDeleted+" RETURNING "+userColumns,
		role, userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateStatus(ctx context.Context, userID int, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, Validation("Invalid status '%s'", status)
	}

	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"UPDATE users SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"+notDeleted+" RETURNING "+userColumns,
		status, userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return user, nil
}

// SoftDelete marks the row deleted; it is excluded from all lookups
// afterwards but retained for the audit trail.
func (s *UserService) SoftDelete(ctx context.Context, userID int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_deleted = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1"+notDeleted, userID)
	if err != nil {
		return fmt.Errorf("soft delete user %d: %w", userID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NotFound("User not found")
	}
	return nil
}

type RoleCount struct {
	Role  models.Role `json:"role"`
	Count int         `json:"count"`
}

type RolesSummary struct {
	TotalUsers int         `json:"total_users"`
	ByRole     []RoleCount `json:"by_role"`
}

func (s *UserService) RolesSummary(ctx context.Context) (*RolesSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, COUNT(*) FROM users WHERE is_deleted = FALSE GROUP BY role ORDER BY role")
	if err != nil {
		return nil, fmt.Errorf("roles summary: %w", err)
	}
	defer rows.Close()

	summary := &RolesSummary{ByRole: []RoleCount{}}
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		summary.TotalUsers += rc.Count
		summary.ByRole = append(summary.ByRole, rc)
	}
	return summary, rows.Err()
}
