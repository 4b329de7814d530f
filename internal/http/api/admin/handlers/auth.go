package handlers

import (
	"net/http"
	"strings"

	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/security"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles operator login.
type AuthHandler struct {
	jwtCfg   config.JWTConfig
	adminCfg config.AdminConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(jwtCfg config.JWTConfig, adminCfg config.AdminConfig) *AuthHandler {
	return &AuthHandler{jwtCfg: jwtCfg, adminCfg: adminCfg}
}

// loginRequest is the operator login payload.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies operator credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if h.adminCfg.Username == "" || h.adminCfg.PasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin credentials are not configured"})
		return
	}
	if !strings.EqualFold(strings.TrimSpace(body.Username), h.adminCfg.Username) ||
		!security.VerifyPassword(h.adminCfg.PasswordHash, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errSign := security.SignAdminToken(h.jwtCfg.Secret, h.adminCfg.Username, h.jwtCfg.Expiry)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
