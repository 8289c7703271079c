package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"internhub/models"
)

func applicationRouter(t *testing.T, db *gorm.DB, userID, adminID uint) *gin.Engine {
	t.Helper()
	ac := NewApplicationController(db)

	r := gin.New()
	user := r.Group("", asUser(userID, models.RoleUser))
	user.PUT("/applications/me", ac.UpsertMine)
	user.GET("/applications/me", ac.GetMine)

	admin := r.Group("/admin", asUser(adminID, models.RoleAdmin))
	admin.GET("/applications", ac.AdminList)
	admin.PATCH("/applications/:id", ac.Review)
	admin.POST("/applications/:id/reply-letter", ac.ReplyLetter)
	return r
}

func applicationForm() map[string]string {
	return map[string]string{
		"full_name":      "Budi Santoso",
		"student_number": "2110123456",
		"major":          "Informatics",
		"semester":       "6",
		"phone":          "+62812345678",
		"start_date":     "2026-04-01",
		"end_date":       "2026-06-30",
		"cover_letter":   "I would like to intern here.",
	}
}

func TestApplicationUpsertCreatesPending(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	var app models.Application
	require.NoError(t, db.First(&app).Error)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, "Budi Santoso", app.FullName)
	assert.Equal(t, 6, app.Semester)
}

func TestApplicationUpsertUpdatesExistingRow(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	form := applicationForm()
	form["major"] = "Information Systems"
	w, _ = doForm(t, r, http.MethodPut, "/applications/me", form)
	requireStatus(t, w, http.StatusOK)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var app models.Application
	require.NoError(t, db.First(&app).Error)
	assert.Equal(t, "Information Systems", app.Major)
}

func TestApplicationUpsertValidatesDates(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	form := applicationForm()
	form["end_date"] = "2026-03-01"
	w, env := doForm(t, r, http.MethodPut, "/applications/me", form)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40032, env.Code)
}

func TestApplicationGetMineNotFound(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, env := doJSON(t, r, http.MethodGet, "/applications/me", nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, 40430, env.Code)
}

func TestApplicationReviewAccept(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	var app models.Application
	require.NoError(t, db.First(&app).Error)

	path := fmt.Sprintf("/admin/applications/%d", app.ID)
	w, _ = doJSON(t, r, http.MethodPatch, path, gin.H{
		"status": models.ApplicationAccepted,
		"note":   "welcome aboard",
	})
	requireStatus(t, w, http.StatusOK)

	require.NoError(t, db.First(&app, app.ID).Error)
	assert.Equal(t, models.ApplicationAccepted, app.Status)
	assert.Equal(t, "welcome aboard", app.ReviewNote)
	require.NotNil(t, app.ReviewedBy)
	assert.Equal(t, admin.ID, *app.ReviewedBy)
}

func TestApplicationReviewRejectsBadStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	var app models.Application
	require.NoError(t, db.First(&app).Error)

	path := fmt.Sprintf("/admin/applications/%d", app.ID)
	w, env := doJSON(t, r, http.MethodPatch, path, gin.H{"status": "PENDING"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40035, env.Code)
}

func TestReplyLetterPendingConflicts(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	var app models.Application
	require.NoError(t, db.First(&app).Error)

	path := fmt.Sprintf("/admin/applications/%d/reply-letter", app.ID)
	w, env := doJSON(t, r, http.MethodPost, path, nil)
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, 40930, env.Code)
}

func TestReplyLetterDownloadsPDF(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "intern1", models.RoleUser)
	admin := createUser(t, db, "boss", models.RoleAdmin)
	r := applicationRouter(t, db, user.ID, admin.ID)

	w, _ := doForm(t, r, http.MethodPut, "/applications/me", applicationForm())
	requireStatus(t, w, http.StatusOK)

	var app models.Application
	require.NoError(t, db.First(&app).Error)
	require.NoError(t, db.Model(&app).Updates(map[string]interface{}{
		"status":      models.ApplicationAccepted,
		"review_note": "welcome",
	}).Error)

	path := fmt.Sprintf("/admin/applications/%d/reply-letter", app.ID)
	w, _ = doJSON(t, r, http.MethodPost, path, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reply-letter")
	assert.True(t, len(w.Body.Bytes()) > 500, "pdf body should not be empty")
	assert.Equal(t, "%PDF", string(w.Body.Bytes()[:4]))
}
