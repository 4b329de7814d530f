package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/quoteworks/creditledger/internal/audit"
	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountAdminHandler handles operator account inspection endpoints.
type AccountAdminHandler struct {
	db      *gorm.DB
	service *ledger.Service
}

// NewAccountAdminHandler constructs an AccountAdminHandler.
func NewAccountAdminHandler(db *gorm.DB, service *ledger.Service) *AccountAdminHandler {
	return &AccountAdminHandler{db: db, service: service}
}

// Consistency verifies the materialized balance against the event sum.
func (h *AccountAdminHandler) Consistency(c *gin.Context) {
	consistent, sum, errCheck := h.service.CheckConsistency(c.Request.Context(), c.Param("id"))
	if errCheck != nil {
		switch {
		case errors.Is(errCheck, ledger.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(errCheck, ledger.ErrEmptyAccountID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "consistency check failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"consistent": consistent, "event_sum": sum})
}

// AuditTrail returns audit records, newest first.
func (h *AccountAdminHandler) AuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, errList := audit.List(c.Request.Context(), h.db, c.Query("account_id"), c.Query("actor"), limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list audit records failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
