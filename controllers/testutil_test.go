package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"internhub/config"
	"internhub/middleware"
	"internhub/models"
	"internhub/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()

	uploadDir, err := os.MkdirTemp("", "internhub-uploads")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(uploadDir)

	config.Override(config.AppConfig{
		AppPort:     "8080",
		GinMode:     gin.TestMode,
		JWTSecret:   "test-secret",
		UploadDir:   uploadDir,
		UploadMaxMB: 5,
		Attendance:  testAttendanceConfig(),
	})

	os.Exit(m.Run())
}

func testAttendanceConfig() config.AttendanceConfig {
	return config.AttendanceConfig{
		OfficeLat:          -6.175392,
		OfficeLng:          106.827153,
		MaxDistanceMeters:  10000,
		LateCutoff:         "08:15",
		EarlyLeaveCutoff:   "16:00",
		FaceMatchThreshold: 0.6,
		ResumePolicy:       ResumeRestore,
	}
}

var dbSeq atomic.Int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Attendance{},
		&models.AttendanceBreak{},
		&models.Permission{},
		&models.Project{},
		&models.ProjectMember{},
		&models.UploadedFile{},
	))
	return db
}

// asUser injects the context keys AuthRequired would set, bypassing JWT.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Set(middleware.ContextRoleKey, role)
	}
}

func createUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func enrollFace(t *testing.T, db *gorm.DB, user *models.User, vec []float64) {
	t.Helper()
	encoded, err := utils.EncodeDescriptor(vec)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"face_descriptor":  encoded,
		"face_enrolled_at": &now,
	}).Error)
	user.FaceDescriptor = encoded
}

func faceVector(base float64) []float64 {
	vec := make([]float64, utils.DescriptorLength)
	for i := range vec {
		vec[i] = base
	}
	return vec
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func doForm(t *testing.T, r *gin.Engine, method, path string, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func dataField(t *testing.T, env envelope, key string) interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data[key]
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

func bytesReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
