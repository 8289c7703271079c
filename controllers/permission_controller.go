package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"internhub/models"
	"internhub/utils"
)

// PermissionController handles leave/sickness/late-arrival requests and the
// admin review that makes their status terminal.
type PermissionController struct {
	db *gorm.DB
}

// NewPermissionController creates a new controller instance.
func NewPermissionController(db *gorm.DB) *PermissionController {
	return &PermissionController{db: db}
}

var validPermissionTypes = map[string]bool{
	models.PermissionLeave:       true,
	models.PermissionSick:        true,
	models.PermissionLateArrival: true,
}

// Create submits a permission request. Multipart form: type, date, reason,
// optional proof file. Always created as PENDING.
func (p *PermissionController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	permType := strings.TrimSpace(ctx.PostForm("type"))
	if !validPermissionTypes[permType] {
		utils.Error(ctx, http.StatusBadRequest, 40040, "type must be LEAVE, SICK or LATE_ARRIVAL")
		return
	}

	date, err := parseDate(ctx.PostForm("date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "date must be YYYY-MM-DD")
		return
	}

	reason := utils.Sanitize(strings.TrimSpace(ctx.PostForm("reason")))
	if reason == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "reason is required")
		return
	}

	proofURL := ""
	if fh, ferr := ctx.FormFile("file"); ferr == nil {
		proofURL, err = utils.SaveUpload(ctx, p.db, userID, utils.UploadAttendance, fh)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40043, err.Error())
			return
		}
	}

	perm := models.Permission{
		UserID:   userID,
		Type:     permType,
		Date:     date,
		Reason:   reason,
		ProofURL: proofURL,
		Status:   models.PermissionPending,
	}
	if err := p.db.Create(&perm).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create permission")
		return
	}

	utils.ClaimUpload(p.db, proofURL)
	utils.Success(ctx, gin.H{"permission": perm})
}

// ListMine returns the caller's permission requests, newest first.
func (p *PermissionController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.Permission
	var total int64
	q := p.db.Model(&models.Permission{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count permissions")
		return
	}
	if err := q.Order("date DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load permissions")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// AdminList returns permission requests across users with optional status
// and type filters.
func (p *PermissionController) AdminList(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	q := p.db.Model(&models.Permission{})
	if v := strings.TrimSpace(ctx.Query("status")); v != "" {
		q = q.Where("status = ?", v)
	}
	if v := strings.TrimSpace(ctx.Query("type")); v != "" {
		q = q.Where("type = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count permissions")
		return
	}
	var items []models.Permission
	if err := q.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load permissions")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// Review transitions a PENDING permission to APPROVED or REJECTED. The
// decision is terminal: reviewed requests cannot be reopened.
func (p *PermissionController) Review(ctx *gin.Context) {
	adminID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid request payload")
		return
	}
	if req.Status != models.PermissionApproved && req.Status != models.PermissionRejected {
		utils.Error(ctx, http.StatusBadRequest, 40045, "status must be APPROVED or REJECTED")
		return
	}

	var perm models.Permission
	if err := p.db.First(&perm, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "permission not found")
		return
	}
	if perm.Status != models.PermissionPending {
		utils.Error(ctx, http.StatusConflict, 40940, "permission already reviewed")
		return
	}

	now := time.Now()
	perm.Status = req.Status
	perm.ReviewedBy = &adminID
	perm.ReviewedAt = &now
	if err := p.db.Save(&perm).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update permission")
		return
	}

	utils.Success(ctx, gin.H{"permission": perm})
}
