package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz verifies database connectivity.
func (h *HealthHandler) Healthz(c *gin.Context) {
	sqlDB, errDB := h.db.DB()
	if errDB != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	if errPing := sqlDB.PingContext(c.Request.Context()); errPing != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
