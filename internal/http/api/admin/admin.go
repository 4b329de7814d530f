// Package admin registers the operator API behind JWT bearer auth.
package admin

import (
	"net/http"
	"strings"

	"github.com/quoteworks/creditledger/internal/catalog"
	"github.com/quoteworks/creditledger/internal/config"
	handlers "github.com/quoteworks/creditledger/internal/http/api/admin/handlers"
	"github.com/quoteworks/creditledger/internal/ledger"
	"github.com/quoteworks/creditledger/internal/security"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, conn *gorm.DB, service *ledger.Service, catalogStore *catalog.Store, jwtCfg config.JWTConfig, adminCfg config.AdminConfig, configPath string) {
	if r == nil || conn == nil || service == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(conn)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(jwtCfg, adminCfg)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(jwtCfg))

	adjustmentHandler := handlers.NewAdjustmentHandler(service)
	authed.POST("/accounts/:id/adjustments", adjustmentHandler.Adjust)
	authed.POST("/accounts/:id/expire", adjustmentHandler.Expire)

	accountHandler := handlers.NewAccountAdminHandler(conn, service)
	authed.GET("/accounts/:id/consistency", accountHandler.Consistency)
	authed.GET("/audit", accountHandler.AuditTrail)

	opsHandler := handlers.NewOpsHandler(service, catalogStore, configPath)
	authed.POST("/decay/run", opsHandler.RunDecay)
	authed.POST("/catalog/reload", opsHandler.ReloadCatalog)
	authed.GET("/catalog", opsHandler.ShowCatalog)
}

// adminAuthMiddleware validates operator JWTs.
func adminAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("adminUsername", claims.Username)
		c.Next()
	}
}
