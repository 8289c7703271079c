package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"internhub/models"
	"internhub/utils"
)

// ApplicationController manages internship applications: the applicant-side
// upsert and the admin review/decision flow.
type ApplicationController struct {
	db *gorm.DB
}

// NewApplicationController creates a new controller instance.
func NewApplicationController(db *gorm.DB) *ApplicationController {
	return &ApplicationController{db: db}
}

// UpsertMine creates or updates the caller's application. Multipart form with
// biographical fields plus optional transcript/request documents. The review
// status is never touched here.
func (a *ApplicationController) UpsertMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	fullName := utils.Sanitize(strings.TrimSpace(ctx.PostForm("full_name")))
	if fullName == "" {
		utils.Error(ctx, http.StatusBadRequest, 40030, "full_name is required")
		return
	}
	startDate, err := parseDate(ctx.PostForm("start_date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := parseDate(ctx.PostForm("end_date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "end_date must be YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		utils.Error(ctx, http.StatusBadRequest, 40032, "end_date must not precede start_date")
		return
	}
	semester, _ := strconv.Atoi(ctx.PostForm("semester"))

	var app models.Application
	if err := a.db.Where("user_id = ?", userID).First(&app).Error; err != nil {
		app = models.Application{UserID: userID, Status: models.ApplicationPending}
	}

	app.FullName = fullName
	app.StudentNumber = strings.TrimSpace(ctx.PostForm("student_number"))
	app.Major = utils.Sanitize(strings.TrimSpace(ctx.PostForm("major")))
	app.Semester = semester
	app.Phone = strings.TrimSpace(ctx.PostForm("phone"))
	app.StartDate = startDate
	app.EndDate = endDate
	app.CoverLetter = utils.Sanitize(ctx.PostForm("cover_letter"))

	claimed := make([]string, 0, 2)
	if fh, ferr := ctx.FormFile("transcript"); ferr == nil {
		url, uerr := utils.SaveUpload(ctx, a.db, userID, utils.UploadApplications, fh)
		if uerr != nil {
			utils.Error(ctx, http.StatusBadRequest, 40033, uerr.Error())
			return
		}
		app.TranscriptURL = url
		claimed = append(claimed, url)
	}
	if fh, ferr := ctx.FormFile("request"); ferr == nil {
		url, uerr := utils.SaveUpload(ctx, a.db, userID, utils.UploadApplications, fh)
		if uerr != nil {
			utils.Error(ctx, http.StatusBadRequest, 40033, uerr.Error())
			return
		}
		app.RequestURL = url
		claimed = append(claimed, url)
	}

	if err := a.db.Save(&app).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save application")
		return
	}
	for _, url := range claimed {
		utils.ClaimUpload(a.db, url)
	}

	utils.Success(ctx, gin.H{"application": app})
}

// GetMine returns the caller's application, or 404 when none was submitted.
func (a *ApplicationController) GetMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var app models.Application
	if err := a.db.Where("user_id = ?", userID).First(&app).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "application not found")
		return
	}
	utils.Success(ctx, gin.H{"application": app})
}

// AdminList returns applications across users with an optional status filter.
func (a *ApplicationController) AdminList(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	q := a.db.Model(&models.Application{})
	if v := strings.TrimSpace(ctx.Query("status")); v != "" {
		q = q.Where("status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to count applications")
		return
	}
	var items []models.Application
	if err := q.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load applications")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// Review sets an application to ACCEPTED or REJECTED with an optional note
// and notifies the applicant by mail, best effort.
func (a *ApplicationController) Review(ctx *gin.Context) {
	adminID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid request payload")
		return
	}
	if req.Status != models.ApplicationAccepted && req.Status != models.ApplicationRejected {
		utils.Error(ctx, http.StatusBadRequest, 40035, "status must be ACCEPTED or REJECTED")
		return
	}

	var app models.Application
	if err := a.db.First(&app, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "application not found")
		return
	}

	now := time.Now()
	app.Status = req.Status
	app.ReviewNote = utils.Sanitize(req.Note)
	app.ReviewedBy = &adminID
	app.ReviewedAt = &now
	if err := a.db.Save(&app).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update application")
		return
	}

	var applicant models.User
	if err := a.db.First(&applicant, app.UserID).Error; err == nil && applicant.Email != "" {
		utils.NotifyApplicationDecision(applicant.Email, app.FullName, app.Status, app.ReviewNote)
	}

	utils.Success(ctx, gin.H{"application": app})
}

// ReplyLetter renders the decision letter for a reviewed application as a PDF
// download. Pending applications have no decision to letterhead yet.
func (a *ApplicationController) ReplyLetter(ctx *gin.Context) {
	var app models.Application
	if err := a.db.First(&app, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "application not found")
		return
	}
	if app.Status == models.ApplicationPending {
		utils.Error(ctx, http.StatusConflict, 40930, "application has not been reviewed yet")
		return
	}

	var agency string
	var applicant models.User
	if err := a.db.First(&applicant, app.UserID).Error; err == nil {
		agency = applicant.Agency
	}

	pdf := buildReplyLetter(app, agency)
	filename := fmt.Sprintf("reply-letter-%d.pdf", app.ID)
	ctx.Header("Content-Type", "application/pdf")
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := pdf.Output(ctx.Writer); err != nil {
		utils.Logger.Error("reply letter render failed", zap.Error(err))
	}
}

func buildReplyLetter(app models.Application, agency string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Internship Reply Letter", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "INTERNSHIP REPLY LETTER", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, time.Now().Format("2 January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Dear "+app.FullName+",", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	var body string
	if app.Status == models.ApplicationAccepted {
		body = fmt.Sprintf(
			"We are pleased to inform you that your internship application has been ACCEPTED. "+
				"Your internship period runs from %s through %s.",
			app.StartDate.Format("2 January 2006"), app.EndDate.Format("2 January 2006"))
	} else {
		body = "We regret to inform you that your internship application has been REJECTED."
	}
	pdf.MultiCell(0, 6, body, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Applicant details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Student number", app.StudentNumber},
		{"Major", app.Major},
		{"Semester", strconv.Itoa(app.Semester)},
		{"Agency", agency},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		pdf.CellFormat(50, 6, r[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, ": "+r[1], "", 1, "L", false, 0, "")
	}

	if app.ReviewNote != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, "Reviewer note", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, app.ReviewNote, "", "L", false)
	}

	pdf.Ln(12)
	pdf.CellFormat(0, 6, "Sincerely,", "", 1, "L", false, 0, "")
	pdf.Ln(14)
	pdf.CellFormat(0, 6, "Internship Administrator", "", 1, "L", false, 0, "")
	return pdf
}
