package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunch-system/internal/domain"
	"lunch-system/internal/utils"
)

var secret = []byte("middleware-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"role": RoleFrom(c)})
}

func serve(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthResolvesRole(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(secret), whoami)
	r.GET("/admin", JWTAuth(secret), RequireRole(domain.RoleAdmin), whoami)
	r.GET("/root", JWTAuth(secret), RequireRole(domain.RoleSuperAdmin), whoami)

	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role": "employee"}`, w.Body.String())

	admin, _, err := utils.GenerateToken(secret, domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "Bearer "+admin)
	assert.JSONEq(t, `{"role": "admin"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = serve(r, http.MethodGet, "/admin", "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/root", "Bearer "+admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	w = serve(r, http.MethodGet, "/me", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthWithoutSecretRejectsTokens(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(nil), whoami)

	admin, _, err := utils.GenerateToken(secret, domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/me", "Bearer "+admin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://lunch.example"))
	r.GET("/x", whoami)

	w := serve(r, http.MethodOptions, "/x", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://lunch.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimit(t *testing.T) {
	_, err := RateLimit("often")
	assert.Error(t, err)

	limit, err := RateLimit("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.GET("/x", limit, whoami)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", "").Code)

	w := serve(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success": false, "error": "too many requests", "code": "RATE_LIMITED"}`, w.Body.String())
}
