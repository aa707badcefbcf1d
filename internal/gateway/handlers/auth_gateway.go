package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"lunch-system/config"
	"lunch-system/internal/domain"
	"lunch-system/internal/utils"
)

type AuthHTTPHandler struct {
	auth config.AuthConfig
}

func NewAuthHTTPHandler(auth config.AuthConfig) *AuthHTTPHandler {
	return &AuthHTTPHandler{auth: auth}
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login trades the shared admin or superadmin password for a bearer token.
func (h *AuthHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request format", "INVALID_PAYLOAD"))
		return
	}
	if len(h.auth.AdminHash) == 0 && len(h.auth.SuperAdminHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, errorBody("admin login is disabled", "LOGIN_DISABLED"))
		return
	}

	role, ok := h.match(strings.TrimSpace(req.Password))
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("invalid password", "UNAUTHORIZED"))
		return
	}

	token, exp, err := utils.GenerateToken(h.auth.JWTSecret, role, h.auth.TokenTTL)
	if err != nil {
		log.Printf("auth: failed to sign token: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to issue token", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"role":       role,
		"expires_at": exp,
	})
}

func (h *AuthHTTPHandler) match(password string) (domain.Role, bool) {
	if len(h.auth.SuperAdminHash) > 0 && bcrypt.CompareHashAndPassword(h.auth.SuperAdminHash, []byte(password)) == nil {
		return domain.RoleSuperAdmin, true
	}
	if len(h.auth.AdminHash) > 0 && bcrypt.CompareHashAndPassword(h.auth.AdminHash, []byte(password)) == nil {
		return domain.RoleAdmin, true
	}
	return "", false
}
