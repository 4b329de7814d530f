package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account-facing ledger endpoints.
type AccountHandler struct {
	service *ledger.Service
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(service *ledger.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

// Touch lazily creates the account and returns its current state.
func (h *AccountHandler) Touch(c *gin.Context) {
	account, errGet := h.service.GetOrCreate(c.Request.Context(), c.Param("id"))
	if errGet != nil {
		if errors.Is(errGet, ledger.ErrEmptyAccountID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create account failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": account.ID,
		"balance":    account.Balance,
		"state":      account.State.String(),
	})
}

// Balance returns the account read-model.
func (h *AccountHandler) Balance(c *gin.Context) {
	info, errBalance := h.service.Balance(c.Request.Context(), c.Param("id"))
	if errBalance != nil {
		switch {
		case errors.Is(errBalance, ledger.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(errBalance, ledger.ErrEmptyAccountID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read balance failed"})
		}
		return
	}
	c.JSON(http.StatusOK, info)
}

// eventView is the serialized form of one ledger event.
type eventView struct {
	ID            uint64 `json:"id"`
	Kind          string `json:"kind"`
	Delta         int64  `json:"delta"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// Events returns the account's ledger events, most recent first.
func (h *AccountHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, errList := h.service.ListEvents(c.Request.Context(), c.Param("id"), limit, offset)
	if errList != nil {
		if errors.Is(errList, ledger.ErrEmptyAccountID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list events failed"})
		return
	}

	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, eventView{
			ID:            event.ID,
			Kind:          string(event.Kind),
			Delta:         event.Delta,
			BalanceBefore: event.BalanceBefore,
			BalanceAfter:  event.BalanceAfter,
			Description:   event.Description,
			CreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "limit": limit, "offset": offset})
}
