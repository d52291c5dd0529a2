package handlers

import (
	"net/http"
	"strconv"

	"ordering-svc/audit"
	"ordering-svc/middleware"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  *services.UserService
	audit  *audit.Recorder
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, auditRec *audit.Recorder, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, audit: auditRec, logger: logger}
}

func (h *UserHandler) Me(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	user, err := h.users.GetUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor.ID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), actor.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	role := c.Query("role")
	skip, limit := pagination(c, 100)

	users, err := h.users.GetUsers(c.Request.Context(), role, skip, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "user.created", user.ID, nil, user)
	h.logger.Info("User created", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.changeRole(c, userID, req.Role)
}

// PromoteAdmin and DemoteAdmin are fixed-role shorthands for the
// superadmin surface.
func (h *UserHandler) PromoteAdmin(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	h.changeRole(c, userID, models.RoleAdmin)
}

func (h *UserHandler) DemoteAdmin(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	h.changeRole(c, userID, models.RoleUser)
}

func (h *UserHandler) changeRole(c *gin.Context, userID int, role models.Role) {
	before, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), userID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "user.role_changed", userID,
		gin.H{"role": before.Role}, gin.H{"role": user.Role})
	h.logger.Info("User role changed",
		zap.Int("user_id", userID),
		zap.String("from", string(before.Role)),
		zap.String("to", string(user.Role)))
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	before, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.users.UpdateStatus(c.Request.Context(), userID, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "user.status_changed", userID,
		gin.H{"status": before.Status}, gin.H{"status": user.Status})
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.users.SoftDelete(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "user.deleted", userID, nil, nil)
	h.logger.Info("User soft-deleted", zap.Int("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), userID, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "user.password_reset", userID, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *UserHandler) recordAudit(c *gin.Context, action string, resourceID int, oldValue, newValue any) {
	actor, _ := middleware.ActorFromContext(c)
	h.audit.Record(c.Request.Context(), audit.Entry{
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   resourceID,
		OldValue:     oldValue,
		NewValue:     newValue,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
}

// pagination reads skip/limit query params with a caller-chosen default
// limit, clamped to sane bounds.
func pagination(c *gin.Context, defaultLimit int) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > 1000 {
		limit = defaultLimit
	}
	return skip, limit
}
