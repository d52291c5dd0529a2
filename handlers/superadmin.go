package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuperAdminHandler serves the superadmin-only surface: role
// management summaries, the permission catalog, the audit trail and a
// system health probe.
type SuperAdminHandler struct {
	db     *sql.DB
	users  *services.UserService
	logger *zap.Logger
}

func NewSuperAdminHandler(db *sql.DB, users *services.UserService, logger *zap.Logger) *SuperAdminHandler {
	return &SuperAdminHandler{db: db, users: users, logger: logger}
}

func (h *SuperAdminHandler) RolesSummary(c *gin.Context) {
	summary, err := h.users.RolesSummary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SuperAdminHandler) PermissionsList(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT id, code, description, created_at FROM permissions ORDER BY code")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	permissions := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.CreatedAt); err != nil {
			respondError(c, h.logger, err)
			return
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": permissions})
}

func (h *SuperAdminHandler) AuditLogs(c *gin.Context) {
	skip, limit := pagination(c, 100)
	action := c.Query("action")
	userID := c.Query("user_id")

	query := "SELECT id, user_id, action, resource_type, resource_id, old_value, new_value, ip_address, user_agent, description, created_at FROM audit_logs"
	countQuery := "SELECT COUNT(*) FROM audit_logs"
	where := ""
	args := []any{}
	if action != "" {
		where = " WHERE action = $1"
		args = append(args, action)
	}
	if userID != "" {
		if id, err := strconv.Atoi(userID); err == nil {
			if where == "" {
				where = " WHERE user_id = $1"
			} else {
				where += " AND user_id = $2"
			}
			args = append(args, id)
		}
	}

	var total int
	if err := h.db.QueryRowContext(c.Request.Context(), countQuery+where, args...).Scan(&total); err != nil {
		respondError(c, h.logger, err)
		return
	}

	query += where + " ORDER BY created_at DESC OFFSET $" + strconv.Itoa(len(args)+1) + " LIMIT $" + strconv.Itoa(len(args)+2)
	args = append(args, skip, limit)

	rows, err := h.db.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.ResourceType, &l.ResourceID,
			&l.OldValue, &l.NewValue, &l.IPAddress, &l.UserAgent, &l.Description, &l.CreatedAt); err != nil {
			respondError(c, h.logger, err)
			return
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"skip":  skip,
		"limit": limit,
		"logs":  logs,
	})
}

func (h *SuperAdminHandler) SystemHealth(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "healthy"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unreachable"
	}

	counts := gin.H{}
	for _, table := range []string{"users", "menu_items", "orders", "audit_logs"} {
		var n int
		if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err == nil {
			counts[table] = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"database":   dbStatus,
		"row_counts": counts,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
