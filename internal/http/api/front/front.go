// Package front registers the collaborator-facing ledger API.
package front

import (
	"github.com/quoteworks/creditledger/internal/http/api/front/handlers"
	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// RegisterFrontRoutes registers the routes called by the host application
// and the payment processor.
func RegisterFrontRoutes(r *gin.Engine, service *ledger.Service) {
	if r == nil || service == nil {
		return
	}

	group := r.Group("/v0")

	accountHandler := handlers.NewAccountHandler(service)
	group.POST("/accounts/:id", accountHandler.Touch)
	group.GET("/accounts/:id/balance", accountHandler.Balance)
	group.GET("/accounts/:id/events", accountHandler.Events)

	rewardHandler := handlers.NewRewardHandler(service)
	group.POST("/accounts/:id/rewards", rewardHandler.Apply)

	purchaseHandler := handlers.NewPurchaseHandler(service)
	group.POST("/purchases", purchaseHandler.Create)
	group.POST("/purchases/callback", purchaseHandler.Callback)
}
