package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ordering-svc/audit"
	"ordering-svc/cache"
	"ordering-svc/middleware"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type MenuHandler struct {
	menu        *services.MenuService
	redisClient *redis.Client
	audit       *audit.Recorder
	logger      *zap.Logger
}

func NewMenuHandler(menu *services.MenuService, redisClient *redis.Client, auditRec *audit.Recorder, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{menu: menu, redisClient: redisClient, audit: auditRec, logger: logger}
}

func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	category := c.Query("category")
	skip, limit := pagination(c, 100)

	items, err := h.menu.GetMenuItems(c.Request.Context(), category, skip, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) GetMenuItem(c *gin.Context) {
	id := c.Param("id")
	itemID, err := strconv.Atoi(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	// Try cache first
	if h.redisClient != nil {
		if data, err := cache.GetMenuItem(c.Request.Context(), h.redisClient, id); err == nil {
			var item models.MenuItem
			if err := json.Unmarshal(data, &item); err == nil {
				c.JSON(http.StatusOK, item)
				return
			}
		}
	}

	item, err := h.menu.GetMenuItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if h.redisClient != nil {
		_ = cache.SetMenuItem(c.Request.Context(), h.redisClient, id, item)
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var req models.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.menu.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "menu_item.created", item.ID, nil, item)
	h.logger.Info("Menu item created", zap.Int("menu_item_id", item.ID), zap.String("name", item.Name))
	c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	var req models.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.menu.UpdateMenuItem(c.Request.Context(), itemID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.invalidateItem(c, itemID)
	h.recordAudit(c, "menu_item.updated", itemID, nil, item)
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	if err := h.menu.DeleteMenuItem(c.Request.Context(), itemID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.invalidateItem(c, itemID)
	h.recordAudit(c, "menu_item.deleted", itemID, nil, nil)
	h.logger.Info("Menu item deleted", zap.Int("menu_item_id", itemID))
	c.Status(http.StatusNoContent)
}

func (h *MenuHandler) GetCategories(c *gin.Context) {
	categories, err := h.menu.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *MenuHandler) GetMenuOptions(c *gin.Context) {
	options, err := h.menu.GetMenuOptions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *MenuHandler) GetMenuOption(c *gin.Context) {
	optionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu option ID"})
		return
	}

	option, err := h.menu.GetMenuOption(c.Request.Context(), optionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, option)
}

func (h *MenuHandler) CreateMenuOption(c *gin.Context) {
	var req models.CreateMenuOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.menu.CreateMenuOption(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "menu_option.created", option.ID, nil, option)
	c.JSON(http.StatusCreated, option)
}

func (h *MenuHandler) UpdateMenuOption(c *gin.Context) {
	optionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu option ID"})
		return
	}

	var req models.UpdateMenuOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.menu.UpdateMenuOption(c.Request.Context(), optionID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "menu_option.updated", optionID, nil, option)
	c.JSON(http.StatusOK, option)
}

func (h *MenuHandler) DeleteMenuOption(c *gin.Context) {
	optionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu option ID"})
		return
	}

	if err := h.menu.DeleteMenuOption(c.Request.Context(), optionID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.recordAudit(c, "menu_option.deleted", optionID, nil, nil)
	c.Status(http.StatusNoContent)
}

func (h *MenuHandler) CreateOptionChoice(c *gin.Context) {
	optionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu option ID"})
		return
	}

	var req models.CreateOptionChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	choice, err := h.menu.CreateOptionChoice(c.Request.Context(), optionID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, choice)
}

func (h *MenuHandler) UpdateOptionChoice(c *gin.Context) {
	choiceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid option choice ID"})
		return
	}

	var req models.UpdateOptionChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	choice, err := h.menu.UpdateOptionChoice(c.Request.Context(), choiceID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, choice)
}

func (h *MenuHandler) DeleteOptionChoice(c *gin.Context) {
	choiceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid option choice ID"})
		return
	}

	if err := h.menu.DeleteOptionChoice(c.Request.Context(), choiceID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MenuHandler) ReorderOptionChoices(c *gin.Context) {
	optionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu option ID"})
		return
	}

	var req models.ReorderChoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	choices, err := h.menu.ReorderOptionChoices(c.Request.Context(), optionID, req.Choices)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, choices)
}

func (h *MenuHandler) invalidateItem(c *gin.Context, itemID int) {
	if h.redisClient == nil {
		return
	}
	if err := cache.InvalidateMenuItem(c.Request.Context(), h.redisClient, strconv.Itoa(itemID)); err != nil {
		h.logger.Warn("Failed to invalidate menu item cache",
			zap.Int("menu_item_id", itemID), zap.Error(err))
	}
}

func (h *MenuHandler) recordAudit(c *gin.Context, action string, resourceID int, oldValue, newValue any) {
	actor, _ := middleware.ActorFromContext(c)
	h.audit.Record(c.Request.Context(), audit.Entry{
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: "menu_item",
		ResourceID:   resourceID,
		OldValue:     oldValue,
		NewValue:     newValue,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
}
