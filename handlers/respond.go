package handlers

import (
	"net/http"

	"ordering-svc/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error to a structured client response.
// Anything outside the service taxonomy is logged and reported as a
// generic 500 without detail leakage.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if appErr, ok := services.AsError(err); ok {
		c.JSON(appErr.Status(), gin.H{"error": appErr.Message})
		return
	}
	logger.Error("Internal error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
