package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lunch-system/internal/domain"
	"lunch-system/internal/utils"
)

const roleKey = "role"

// JWTAuth resolves the caller's role. Requests without a bearer token are
// employees; a bearer token that fails to verify is rejected.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(roleKey, domain.RoleEmployee)
			c.Next()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(secret) == 0 {
			abortUnauthorized(c, "malformed authorization header")
			return
		}
		claims, err := utils.ParseToken(secret, strings.TrimSpace(tokenStr))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(required domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleFrom(c)
		if role.Satisfies(required) {
			c.Next()
			return
		}
		if role.Satisfies(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient role",
				"code":    "FORBIDDEN",
			})
			return
		}
		abortUnauthorized(c, "authentication required")
	}
}

func RoleFrom(c *gin.Context) domain.Role {
	if v, ok := c.Get(roleKey); ok {
		if role, ok := v.(domain.Role); ok {
			return role
		}
	}
	return domain.RoleEmployee
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
		"code":    "UNAUTHORIZED",
	})
}
