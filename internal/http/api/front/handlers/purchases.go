package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// PurchaseHandler handles purchase order creation and the payment processor
// callback.
type PurchaseHandler struct {
	service *ledger.Service
}

// NewPurchaseHandler constructs a PurchaseHandler.
func NewPurchaseHandler(service *ledger.Service) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// createPurchaseRequest is the order creation payload.
type createPurchaseRequest struct {
	AccountID string `json:"account_id" binding:"required"` // Purchasing account.
	SessionID string `json:"session_id" binding:"required"` // External payment session.
	Credits   int64  `json:"credits" binding:"required"`    // Credits the order is worth.
}

// Create registers a pending purchase order for a payment session.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var body createPurchaseRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	order, errCreate := h.service.CreatePurchaseOrder(c.Request.Context(), body.AccountID, body.SessionID, body.Credits)
	if errCreate != nil {
		switch {
		case errors.Is(errCreate, ledger.ErrEmptyAccountID),
			errors.Is(errCreate, ledger.ErrEmptySessionID),
			errors.Is(errCreate, ledger.ErrNonPositiveCredits):
			c.JSON(http.StatusBadRequest, gin.H{"error": errCreate.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create purchase order failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": order.ExternalSessionID,
		"account_id": order.AccountID,
		"credits":    order.CreditsAmount,
		"status":     order.Status.String(),
	})
}

// purchaseCallbackRequest is the processor completion/failure payload.
type purchaseCallbackRequest struct {
	SessionID string `json:"session_id" binding:"required"` // External payment session.
	Credits   int64  `json:"credits"`                       // Credited amount, falls back to the order.
	Status    string `json:"status" binding:"required"`     // "completed" or "failed".
}

// Callback processes a payment processor signal. The processor may redeliver
// the same signal; replays resolve without mutating anything.
func (h *PurchaseHandler) Callback(c *gin.Context) {
	var body purchaseCallbackRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	switch strings.ToLower(strings.TrimSpace(body.Status)) {
	case "completed":
		outcome, errComplete := h.service.CompletePurchase(c.Request.Context(), body.SessionID, body.Credits)
		if errComplete != nil {
			switch {
			case errors.Is(errComplete, ledger.ErrEmptySessionID):
				c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			case errors.Is(errComplete, ledger.ErrOrderNotPending):
				c.JSON(http.StatusConflict, gin.H{"error": "purchase order is not pending"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "complete purchase failed"})
			}
			return
		}
		if outcome.Result == ledger.PurchaseNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment session", "result": string(outcome.Result)})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"result":  string(outcome.Result),
			"balance": outcome.Balance,
		})
	case "failed":
		if errFail := h.service.FailPurchase(c.Request.Context(), body.SessionID); errFail != nil {
			switch {
			case errors.Is(errFail, ledger.ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment session"})
			case errors.Is(errFail, ledger.ErrOrderNotPending):
				c.JSON(http.StatusConflict, gin.H{"error": "purchase order is not pending"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "fail purchase failed"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": "FAILED"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be completed or failed"})
	}
}
