package handlers

import (
	"errors"
	"net/http"

	"github.com/quoteworks/creditledger/internal/http/api"
	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// AdjustmentHandler handles manual ledger corrections.
type AdjustmentHandler struct {
	service *ledger.Service
}

// NewAdjustmentHandler constructs an AdjustmentHandler.
func NewAdjustmentHandler(service *ledger.Service) *AdjustmentHandler {
	return &AdjustmentHandler{service: service}
}

// adjustRequest is the manual adjustment payload.
type adjustRequest struct {
	Delta  int64  `json:"delta" binding:"required"`  // Signed credit change.
	Reason string `json:"reason" binding:"required"` // Mandatory audit description.
}

// Adjust applies an unrestricted manual correction to an account.
func (h *AdjustmentHandler) Adjust(c *gin.Context) {
	var body adjustRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	event, errAdjust := h.service.Adjust(c.Request.Context(), ledger.AdjustInput{
		AccountID: c.Param("id"),
		Delta:     body.Delta,
		Reason:    body.Reason,
		ActorID:   c.GetString("adminUsername"),
		RequestID: api.GetRequestID(c),
	})
	if errAdjust != nil {
		switch {
		case errors.Is(errAdjust, ledger.ErrEmptyReason),
			errors.Is(errAdjust, ledger.ErrZeroAdjustment),
			errors.Is(errAdjust, ledger.ErrEmptyAccountID):
			c.JSON(http.StatusBadRequest, gin.H{"error": errAdjust.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id":      event.ID,
		"delta":         event.Delta,
		"balance_after": event.BalanceAfter,
	})
}

// expireRequest is the account expiry payload.
type expireRequest struct {
	Reason string `json:"reason" binding:"required"` // Mandatory audit description.
}

// Expire retires an account into the terminal EXPIRED state.
func (h *AdjustmentHandler) Expire(c *gin.Context) {
	var body expireRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errExpire := h.service.Expire(c.Request.Context(), c.Param("id"), body.Reason, c.GetString("adminUsername"), api.GetRequestID(c))
	if errExpire != nil {
		switch {
		case errors.Is(errExpire, ledger.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(errExpire, ledger.ErrEmptyReason), errors.Is(errExpire, ledger.ErrEmptyAccountID):
			c.JSON(http.StatusBadRequest, gin.H{"error": errExpire.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "expire account failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": "EXPIRED"})
}
