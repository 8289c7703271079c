package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"internhub/middleware"
	"internhub/models"
	"internhub/utils"
)

func authRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	ac := NewAuthController(db)

	r := gin.New()
	r.POST("/auth/register", ac.Register)
	r.POST("/auth/login", ac.Login)

	user := r.Group("", middleware.AuthRequired())
	user.GET("/auth/me", ac.Me)
	user.POST("/auth/logout", ac.Logout)
	user.POST("/face/enroll", ac.EnrollFace)

	admin := r.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/users", ac.ListUsers)
	admin.POST("/users/:id/face/reset", ac.ResetFace)
	return r
}

func registerBody(username string) gin.H {
	return gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"confirm":  "password123",
		"agency":   "Dinas Kominfo",
		"campus":   "Universitas Indonesia",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(t, db)

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("intern1"))
	requireStatus(t, w, http.StatusOK)
	assert.NotEmpty(t, dataField(t, env, "token"))

	w, env = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"username": "intern1",
		"password": "password123",
	})
	requireStatus(t, w, http.StatusOK)
	token, _ := dataField(t, env, "token").(string)
	require.NotEmpty(t, token)

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "intern1", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(t, db)

	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("intern1"))
	requireStatus(t, w, http.StatusOK)

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("intern1"))
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, 40901, env.Code)
}

func TestRegisterMismatchedPasswords(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(t, db)

	body := registerBody("intern1")
	body["confirm"] = "different123"
	w, env := doJSON(t, r, http.MethodPost, "/auth/register", body)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40002, env.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(t, db)

	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("intern1"))
	requireStatus(t, w, http.StatusOK)

	w, env := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"username": "intern1",
		"password": "wrongpassword",
	})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, 40106, env.Code)
}

func bearerRequest(t *testing.T, r *gin.Engine, method, path, token string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytesReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestMeRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(t, db)

	w, env := doJSON(t, r, http.MethodGet, "/auth/me", nil)
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, 40101, env.Code)
}

func TestMeWithValidToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	r := authRouter(t, db)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	require.NoError(t, err)

	w, env := bearerRequest(t, r, http.MethodGet, "/auth/me", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "intern1", data["user"]["username"])
	assert.Equal(t, false, data["user"]["face_enrolled"])
}

func TestLogoutBlacklistsToken(t *testing.T) {
	db := setupTestDB(t)
	// Unique username: the blacklist is process-global and keyed by the raw
	// token string, and tokens for identical claims minted within the same
	// second are byte-identical, so an "intern1" token revoked here would
	// also revoke the "intern1" tokens generated by later tests.
	user := createUser(t, db, "logoutuser", models.RoleUser)
	r := authRouter(t, db)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	require.NoError(t, err)

	w, _ := bearerRequest(t, r, http.MethodPost, "/auth/logout", token, nil)
	requireStatus(t, w, http.StatusOK)

	w, _ = bearerRequest(t, r, http.MethodGet, "/auth/me", token, nil)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestAdminGateRejectsUserRole(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	r := authRouter(t, db)

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	require.NoError(t, err)

	w, env := bearerRequest(t, r, http.MethodGet, "/admin/users", token, nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, 40301, env.Code)
}

func TestEnrollAndResetFace(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := authRouter(t, db)

	userToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	require.NoError(t, err)
	adminToken, err := utils.GenerateToken(admin.ID, admin.Username, admin.Role, tokenTTL)
	require.NoError(t, err)

	body, err := json.Marshal(gin.H{"descriptor": faceVector(0.5)})
	require.NoError(t, err)
	w, _ := bearerRequest(t, r, http.MethodPost, "/face/enroll", userToken, body)
	requireStatus(t, w, http.StatusOK)

	require.NoError(t, db.First(&user, user.ID).Error)
	assert.NotEmpty(t, user.FaceDescriptor)
	assert.NotNil(t, user.FaceEnrolledAt)

	// Wrong length is rejected before touching the row.
	body, err = json.Marshal(gin.H{"descriptor": []float64{1, 2, 3}})
	require.NoError(t, err)
	w, env := bearerRequest(t, r, http.MethodPost, "/face/enroll", userToken, body)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40007, env.Code)

	path := "/admin/users/" + itoa(user.ID) + "/face/reset"
	w, _ = bearerRequest(t, r, http.MethodPost, path, adminToken, nil)
	requireStatus(t, w, http.StatusOK)

	// Refetch into a fresh struct: GORM leaves a destination field untouched
	// when the column is NULL, so the stale FaceEnrolledAt pointer in `user`
	// would survive a First into the reused struct.
	var reset models.User
	require.NoError(t, db.First(&reset, user.ID).Error)
	assert.Empty(t, reset.FaceDescriptor)
	assert.Nil(t, reset.FaceEnrolledAt)
}
