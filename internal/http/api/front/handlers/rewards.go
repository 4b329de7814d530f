package handlers

import (
	"errors"
	"net/http"

	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// RewardHandler handles reward application requests from business-event
// producers.
type RewardHandler struct {
	service *ledger.Service
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(service *ledger.Service) *RewardHandler {
	return &RewardHandler{service: service}
}

// rewardRequest is the reward application payload.
type rewardRequest struct {
	Kind        string `json:"kind" binding:"required"` // Reward kind from the catalog.
	Role        string `json:"role"`                    // Caller role for the eligibility gate.
	Description string `json:"description"`
	Correlation *struct {
		EntityType string `json:"entity_type"` // Idempotency entity type.
		EntityID   string `json:"entity_id"`   // Idempotency entity ID.
	} `json:"correlation"`
}

// Apply grants the reward for a completed business action. Duplicates and
// capped days return 200 with applied=false so callers can retry blindly.
func (h *RewardHandler) Apply(c *gin.Context) {
	var body rewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	input := ledger.RewardInput{
		AccountID:   c.Param("id"),
		Kind:        body.Kind,
		Role:        body.Role,
		Description: body.Description,
	}
	if body.Correlation != nil {
		input.CorrelationType = body.Correlation.EntityType
		input.CorrelationID = body.Correlation.EntityID
	}

	result, errApply := h.service.ApplyReward(c.Request.Context(), input)
	if errApply != nil {
		switch {
		case errors.Is(errApply, ledger.ErrUnknownRewardKind):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reward kind"})
		case errors.Is(errApply, ledger.ErrMalformedCorrelation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "correlation requires entity_type and entity_id"})
		case errors.Is(errApply, ledger.ErrEmptyAccountID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "apply reward failed"})
		}
		return
	}

	response := gin.H{
		"applied": result.Applied,
		"balance": result.Balance,
	}
	// Skips rejected before the transaction never touched the account and
	// carry no state.
	if result.State != 0 {
		response["state"] = result.State.String()
	}
	if !result.Applied {
		response["skip_reason"] = string(result.Skip)
	}
	if result.Event != nil {
		response["event_id"] = result.Event.ID
		response["delta"] = result.Event.Delta
	}
	c.JSON(http.StatusOK, response)
}
