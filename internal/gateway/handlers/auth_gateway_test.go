package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lunch-system/config"
	"lunch-system/internal/domain"
	"lunch-system/internal/utils"
)

func hash(t *testing.T, plain string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func login(t *testing.T, auth config.AuthConfig, body string) (int, map[string]interface{}) {
	t.Helper()
	r := gin.New()
	r.POST("/login", NewAuthHTTPHandler(auth).Login)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestLogin(t *testing.T) {
	auth := config.AuthConfig{
		AdminHash:      hash(t, "admin123"),
		SuperAdminHash: hash(t, "root-pass"),
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
	}

	status, body := login(t, auth, `{"password": "admin123"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["role"])
	claims, err := utils.ParseToken(testSecret, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	status, body = login(t, auth, `{"password": " root-pass "}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "superadmin", body["role"])

	status, body = login(t, auth, `{"password": "guess"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = login(t, auth, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PAYLOAD", body["code"])
}

func TestLoginDisabled(t *testing.T) {
	status, body := login(t, config.AuthConfig{}, `{"password": "admin123"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "LOGIN_DISABLED", body["code"])
}
