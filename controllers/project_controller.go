package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"internhub/models"
	"internhub/utils"
)

const projectCachePrefix = "projects:"

// ProjectController manages the public project showcase.
type ProjectController struct {
	db *gorm.DB
}

// NewProjectController creates a new controller instance.
func NewProjectController(db *gorm.DB) *ProjectController {
	return &ProjectController{db: db}
}

type projectMemberInput struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type projectRequest struct {
	Title       string               `json:"title" binding:"required,min=3,max=128"`
	Description string               `json:"description"`
	RepoURL     string               `json:"repo_url"`
	DemoURL     string               `json:"demo_url"`
	Members     []projectMemberInput `json:"members"`
}

// List returns the showcase, newest first. Public and cached.
func (p *ProjectController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("%slist:%d:%d", projectCachePrefix, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var total int64
	if err := p.db.Model(&models.Project{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count projects")
		return
	}
	var items []models.Project
	if err := p.db.Preload("Members").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load projects")
		return
	}

	body := utils.JSONResponse{
		Code:    0,
		Message: "success",
		Data:    gin.H{"items": items, "total": total, "page": page, "page_size": pageSize},
	}
	utils.CacheSetJSON(cacheKey, body, 60*time.Second)
	ctx.JSON(http.StatusOK, body)
}

// Get returns a single project with its members. Public.
func (p *ProjectController) Get(ctx *gin.Context) {
	var project models.Project
	if err := p.db.Preload("Members").First(&project, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40450, "project not found")
		return
	}
	utils.Success(ctx, gin.H{"project": project})
}

// Create adds a project with the caller as creator. The creator is always a
// member; extra members come from the request body.
func (p *ProjectController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req projectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "title is required (3-128 characters)")
		return
	}

	project := models.Project{
		CreatorID:   userID,
		Title:       utils.Sanitize(req.Title),
		Description: utils.Sanitize(req.Description),
		RepoURL:     strings.TrimSpace(req.RepoURL),
		DemoURL:     strings.TrimSpace(req.DemoURL),
		Members:     buildMembers(userID, req.Members),
	}
	if err := p.db.Create(&project).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to create project")
		return
	}

	utils.InvalidateByPrefix(projectCachePrefix)
	utils.Success(ctx, gin.H{"project": project})
}

// Update rewrites a project's fields and member list. Creator or admin only.
func (p *ProjectController) Update(ctx *gin.Context) {
	project, ok := p.loadOwned(ctx)
	if !ok {
		return
	}

	var req projectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "title is required (3-128 characters)")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		project.Title = utils.Sanitize(req.Title)
		project.Description = utils.Sanitize(req.Description)
		project.RepoURL = strings.TrimSpace(req.RepoURL)
		project.DemoURL = strings.TrimSpace(req.DemoURL)
		project.Members = buildMembers(project.CreatorID, req.Members)
		return tx.Save(project).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to update project")
		return
	}

	utils.InvalidateByPrefix(projectCachePrefix)
	utils.Success(ctx, gin.H{"project": project})
}

// Delete removes a project and its memberships. Creator or admin only.
func (p *ProjectController) Delete(ctx *gin.Context) {
	project, ok := p.loadOwned(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to delete project")
		return
	}

	utils.InvalidateByPrefix(projectCachePrefix)
	utils.Success(ctx, gin.H{"deleted": project.ID})
}

// Thumbnail uploads a showcase image for the project. Creator or admin only.
func (p *ProjectController) Thumbnail(ctx *gin.Context) {
	project, ok := p.loadOwned(ctx)
	if !ok {
		return
	}
	userID, _ := getUserID(ctx)

	fh, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "file is required")
		return
	}
	url, err := utils.SaveUpload(ctx, p.db, userID, utils.UploadProjects, fh)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, err.Error())
		return
	}

	if err := p.db.Model(project).Update("thumbnail_url", url).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to update project")
		return
	}
	utils.ClaimUpload(p.db, url)

	utils.InvalidateByPrefix(projectCachePrefix)
	utils.Success(ctx, gin.H{"thumbnail_url": url})
}

// loadOwned fetches the project from the path and enforces that the caller is
// its creator or an admin. Writes the error response itself on failure.
func (p *ProjectController) loadOwned(ctx *gin.Context) (*models.Project, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}

	var project models.Project
	if err := p.db.First(&project, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40450, "project not found")
		return nil, false
	}
	if project.CreatorID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40350, "only the creator or an admin may modify this project")
		return nil, false
	}
	return &project, true
}

// buildMembers normalizes the member list: the creator is always included
// once, duplicates are dropped, roles default to "member".
func buildMembers(creatorID uint, inputs []projectMemberInput) []models.ProjectMember {
	seen := map[uint]bool{creatorID: true}
	members := []models.ProjectMember{{UserID: creatorID, Role: "owner"}}
	for _, in := range inputs {
		if seen[in.UserID] {
			continue
		}
		seen[in.UserID] = true
		role := strings.TrimSpace(in.Role)
		if role == "" {
			role = "member"
		}
		members = append(members, models.ProjectMember{UserID: in.UserID, Role: role})
	}
	return members
}
