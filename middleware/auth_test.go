package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"internhub/config"
	"internhub/models"
	"internhub/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
	config.Override(config.AppConfig{JWTSecret: "test-secret", RateLimitPerMinute: 60})
	os.Exit(m.Run())
}

func protectedRouter(adminOnly bool) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthRequired()}
	if adminOnly {
		handlers = append(handlers, AdminRequired())
	}
	g := r.Group("", handlers...)
	g.GET("/ping", func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	w := get(protectedRouter(false), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredMalformedHeader(t *testing.T) {
	w := get(protectedRouter(false), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredGarbageToken(t *testing.T) {
	w := get(protectedRouter(false), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredValidToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "intern1", models.RoleUser, time.Hour)
	require.NoError(t, err)

	w := get(protectedRouter(false), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAdminRequiredRejectsUser(t *testing.T) {
	token, err := utils.GenerateToken(7, "intern1", models.RoleUser, time.Hour)
	require.NoError(t, err)

	w := get(protectedRouter(true), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRequiredAllowsAdmin(t *testing.T) {
	token, err := utils.GenerateToken(1, "boss", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	w := get(protectedRouter(true), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := utils.GenerateToken(7, "intern1", models.RoleUser, -time.Minute)
	require.NoError(t, err)

	w := get(protectedRouter(false), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
