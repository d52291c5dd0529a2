package handlers

import (
	"net/http"
	"strconv"

	"ordering-svc/audit"
	"ordering-svc/cache"
	"ordering-svc/middleware"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders      *services.OrderService
	redisClient *redis.Client
	audit       *audit.Recorder
	logger      *zap.Logger
}

func NewOrderHandler(orders *services.OrderService, redisClient *redis.Client, auditRec *audit.Recorder, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, redisClient: redisClient, audit: auditRec, logger: logger}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := otel.Tracer("ordering-svc").Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int("order.items", len(req.Items)),
		attribute.Float64("order.total", req.Total),
	)

	order, err := h.orders.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		middleware.RecordOrderProcessed("rejected")
		respondError(c, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int("order.id", order.ID))
	middleware.RecordOrderProcessed("created")
	h.invalidateItems(c, order.Items)

	h.logger.Info("Order created",
		zap.Int("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Total))
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	status := c.Query("status")
	skip, limit := pagination(c, 100)

	orders, err := h.orders.GetOrders(c.Request.Context(), status, skip, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), orderID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.invalidateItems(c, order.Items)
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx, span := otel.Tracer("ordering-svc").Start(c.Request.Context(), "CancelOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	order, err := h.orders.CancelOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		respondError(c, h.logger, err)
		return
	}

	middleware.RecordOrderProcessed("cancelled")
	h.invalidateItems(c, order.Items)
	h.recordAudit(c, "order.cancelled", orderID,
		gin.H{"status": models.OrderStatusPending}, gin.H{"status": order.Status})

	h.logger.Info("Order cancelled", zap.Int("order_id", orderID))
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	ctx, span := otel.Tracer("ordering-svc").Start(c.Request.Context(), "CompleteOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	order, err := h.orders.CompleteOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		respondError(c, h.logger, err)
		return
	}

	middleware.RecordOrderProcessed("completed")
	h.logger.Info("Order completed", zap.Int("order_id", orderID))
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	ctx, span := otel.Tracer("ordering-svc").Start(c.Request.Context(), "DeleteOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	// Fetch first so cache invalidation and the audit snapshot can see
	// the items that are about to be cascade-deleted.
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.orders.DeleteOrder(ctx, orderID); err != nil {
		span.RecordError(err)
		respondError(c, h.logger, err)
		return
	}

	middleware.RecordOrderProcessed("deleted")
	h.invalidateItems(c, order.Items)
	h.recordAudit(c, "order.deleted", orderID, order, nil)

	h.logger.Info("Order deleted", zap.Int("order_id", orderID))
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) Summary(c *gin.Context) {
	summary, err := h.orders.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// invalidateItems drops cached menu items whose stock the engine just
// touched.
func (h *OrderHandler) invalidateItems(c *gin.Context, items []models.OrderItem) {
	if h.redisClient == nil {
		return
	}
	for _, item := range items {
		if err := cache.InvalidateMenuItem(c.Request.Context(), h.redisClient, strconv.Itoa(item.MenuItemID)); err != nil {
			h.logger.Warn("Failed to invalidate menu item cache",
				zap.Int("menu_item_id", item.MenuItemID), zap.Error(err))
		}
	}
}

func (h *OrderHandler) recordAudit(c *gin.Context, action string, resourceID int, oldValue, newValue any) {
	actor, _ := middleware.ActorFromContext(c)
	h.audit.Record(c.Request.Context(), audit.Entry{
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: "order",
		ResourceID:   resourceID,
		OldValue:     oldValue,
		NewValue:     newValue,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
}
