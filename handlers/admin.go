package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves aggregate reporting for admin-or-above actors.
// These are read-only rollups over orders and users.
type AdminHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAdminHandler(db *sql.DB, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, logger: logger}
}

func (h *AdminHandler) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	var totalOrders int
	var totalRevenue sql.NullFloat64
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders").
		Scan(&totalOrders, &totalRevenue)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var totalUsers, activeUsers int
	err = h.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE last_login >= NOW() - INTERVAL '30 days') FROM users WHERE is_deleted = FALSE").
		Scan(&totalUsers, &activeUsers)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var ordersToday int
	var revenueToday sql.NullFloat64
	err = h.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE created_at::date = CURRENT_DATE").
		Scan(&ordersToday, &revenueToday)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":     totalOrders,
		"total_revenue":    totalRevenue.Float64,
		"total_users":      totalUsers,
		"active_users_30d": activeUsers,
		"orders_today":     ordersToday,
		"revenue_today":    revenueToday.Float64,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AdminHandler) OrdersSummary(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		days = 30
	}

	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT created_at::date AS day, COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE created_at >= NOW() - $1 * INTERVAL '1 day' GROUP BY day ORDER BY day",
		days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	type daySummary struct {
		Date    string  `json:"date"`
		Count   int     `json:"count"`
		Revenue float64 `json:"revenue"`
	}
	summary := []daySummary{}
	for rows.Next() {
		var d daySummary
		var day time.Time
		if err := rows.Scan(&day, &d.Count, &d.Revenue); err != nil {
			respondError(c, h.logger, err)
			return
		}
		d.Date = day.Format("2006-01-02")
		summary = append(summary, d)
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "summary": summary})
}

func (h *AdminHandler) RevenueReport(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}
	// Include the end date itself.
	end = end.AddDate(0, 0, 1)

	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $1 AND created_at < $2 GROUP BY status",
		start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	type statusStats struct {
		Count   int     `json:"count"`
		Revenue float64 `json:"revenue"`
	}
	breakdown := map[string]statusStats{}
	totalOrders := 0
	totalRevenue := 0.0
	for rows.Next() {
		var status string
		var s statusStats
		if err := rows.Scan(&status, &s.Count, &s.Revenue); err != nil {
			respondError(c, h.logger, err)
			return
		}
		breakdown[status] = s
		totalOrders += s.Count
		totalRevenue += s.Revenue
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	avgOrderValue := 0.0
	if totalOrders > 0 {
		avgOrderValue = totalRevenue / float64(totalOrders)
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date":          c.Query("start_date"),
		"end_date":            c.Query("end_date"),
		"total_orders":        totalOrders,
		"total_revenue":       totalRevenue,
		"average_order_value": avgOrderValue,
		"status_breakdown":    breakdown,
	})
}

func (h *AdminHandler) TopProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		days = 30
	}

	rows, err := h.db.QueryContext(c.Request.Context(),
		fmt.Sprintf(`SELECT oi.name, COUNT(oi.id), COALESCE(SUM(oi.quantity), 0), COALESCE(SUM(oi.quantity * oi.price), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= NOW() - $1 * INTERVAL '1 day'
		GROUP BY oi.name
		ORDER BY SUM(oi.quantity * oi.price) DESC
		LIMIT %d`, limit),
		days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	type product struct {
		ProductName   string  `json:"product_name"`
		TimesOrdered  int     `json:"times_ordered"`
		TotalQuantity int     `json:"total_quantity"`
		TotalRevenue  float64 `json:"total_revenue"`
	}
	products := []product{}
	for rows.Next() {
		var p product
		if err := rows.Scan(&p.ProductName, &p.TimesOrdered, &p.TotalQuantity, &p.TotalRevenue); err != nil {
			respondError(c, h.logger, err)
			return
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "limit": limit, "products": products})
}

func (h *AdminHandler) OrdersByStatus(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT status, COUNT(*), COALESCE(SUM(total), 0), COALESCE(AVG(total), 0) FROM orders GROUP BY status")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rows.Close()

	type statusRow struct {
		Status        string  `json:"status"`
		Count         int     `json:"count"`
		TotalRevenue  float64 `json:"total_revenue"`
		AvgOrderValue float64 `json:"avg_order_value"`
	}
	breakdown := []statusRow{}
	for rows.Next() {
		var r statusRow
		if err := rows.Scan(&r.Status, &r.Count, &r.TotalRevenue, &r.AvgOrderValue); err != nil {
			respondError(c, h.logger, err)
			return
		}
		breakdown = append(breakdown, r)
	}
	if err := rows.Err(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown})
}
