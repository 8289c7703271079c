package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internhub/config"
	"internhub/models"
	"internhub/utils"
)

// AttendanceController implements the geofenced, face-verified daily
// attendance workflow: check-in/out, breaks and status polling. All policy
// knobs arrive through AttendanceConfig at construction.
type AttendanceController struct {
	db     *gorm.DB
	cfg    config.AttendanceConfig
	policy attendancePolicy
	now    func() time.Time
}

// NewAttendanceController creates the controller. Malformed cutoffs in the
// configuration are a boot-time error surfaced to the caller.
func NewAttendanceController(db *gorm.DB, cfg config.AttendanceConfig) (*AttendanceController, error) {
	policy, err := newAttendancePolicy(cfg)
	if err != nil {
		return nil, err
	}
	return &AttendanceController{db: db, cfg: cfg, policy: policy, now: time.Now}, nil
}

// Coordinates bind as pointers: 0.0 is a legitimate latitude/longitude on
// the equator or prime meridian, so "required" on a plain float64 would
// reject it as missing.
type geoRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func validCoords(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// checkGeofence validates the caller's coordinates against the office
// location. On rejection nothing is written; the computed distance travels
// back in the message.
func (c *AttendanceController) checkGeofence(ctx *gin.Context, lat, lng float64) (float64, bool) {
	d := utils.HaversineMeters(lat, lng, c.cfg.OfficeLat, c.cfg.OfficeLng)
	if d > c.cfg.MaxDistanceMeters {
		utils.CheckInTotal.WithLabelValues(utils.CheckInRejectedGeo).Inc()
		utils.Error(ctx, http.StatusForbidden, 40310,
			fmt.Sprintf("outside office geofence: %.0f m away (max %.0f m)", d, c.cfg.MaxDistanceMeters))
		return 0, false
	}
	return d, true
}

// CheckIn records the first attendance of the day. The stored face
// descriptor is verified server side before any row is written, and the
// one-row-per-day invariant rides on the composite unique index.
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		geoRequest
		Descriptor []float64 `json:"descriptor" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if !validCoords(*req.Lat, *req.Lng) {
		utils.Error(ctx, http.StatusBadRequest, 40026, "coordinates out of range")
		return
	}

	if !utils.TryAcquireCooldown(fmt.Sprintf("attendance:cooldown:%d", userID), c.cfg.CheckInCooldown) {
		utils.CheckInTotal.WithLabelValues(utils.CheckInRejectedDupe).Inc()
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "check-in attempted too soon, wait a moment")
		return
	}

	var user models.User
	if err := c.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	if user.FaceDescriptor == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "no face enrolled for this account")
		return
	}

	stored, err := utils.DecodeDescriptor(user.FaceDescriptor)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "stored descriptor unreadable")
		return
	}
	dist, err := utils.DescriptorDistance(req.Descriptor, stored)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, err.Error())
		return
	}
	if dist > c.cfg.FaceMatchThreshold {
		utils.CheckInTotal.WithLabelValues(utils.CheckInRejectedFace).Inc()
		utils.Error(ctx, http.StatusForbidden, 40311, "face does not match the enrolled descriptor")
		return
	}

	geoDist, ok := c.checkGeofence(ctx, *req.Lat, *req.Lng)
	if !ok {
		return
	}

	now := c.now()
	day := models.DayStart(now)

	permission := c.approvedLateArrival(userID, day)
	excused := permission != nil

	att := models.Attendance{
		UserID:    userID,
		WorkDate:  day,
		CheckInAt: now,
		Status:    c.policy.checkInStatus(now, excused),
		DistanceM: geoDist,
	}
	if permission != nil {
		att.PermissionID = &permission.ID
	}

	res := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "work_date"}},
		DoNothing: true,
	}).Create(&att)
	if res.Error != nil {
		utils.CheckInTotal.WithLabelValues(utils.CheckInRejectedOther).Inc()
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to record check-in")
		return
	}
	if res.RowsAffected == 0 {
		utils.CheckInTotal.WithLabelValues(utils.CheckInRejectedDupe).Inc()
		utils.Error(ctx, http.StatusConflict, 40910, "already checked in today")
		return
	}

	utils.CheckInTotal.WithLabelValues(utils.CheckInAccepted).Inc()
	c.invalidateToday(userID)
	utils.Success(ctx, gin.H{
		"status":      att.Status,
		"check_in_at": att.CheckInAt,
		"distance_m":  geoDist,
	})
}

// CheckOut closes today's attendance. Rejected when there is no check-in or
// when the day is already closed; before the early-leave cutoff the status
// is overwritten with EARLY_LEAVE.
func (c *AttendanceController) CheckOut(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req geoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if !validCoords(*req.Lat, *req.Lng) {
		utils.Error(ctx, http.StatusBadRequest, 40026, "coordinates out of range")
		return
	}
	if _, ok := c.checkGeofence(ctx, *req.Lat, *req.Lng); !ok {
		return
	}

	now := c.now()
	att, err := c.todayRecord(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}
	if att == nil {
		utils.Error(ctx, http.StatusConflict, 40911, "no check-in recorded today")
		return
	}
	if att.CheckOutAt != nil {
		utils.Error(ctx, http.StatusConflict, 40912, "already checked out today")
		return
	}

	att.CheckOutAt = &now
	att.Status = c.policy.checkOutStatus(now, att.Status)
	if err := c.db.Save(att).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to record check-out")
		return
	}

	c.invalidateToday(userID)
	utils.Success(ctx, gin.H{"status": att.Status, "check_out_at": att.CheckOutAt})
}

// Break starts or ends a temporary absence inside the workday. Multipart
// form: action=start|end, reason (start only), optional proof file.
func (c *AttendanceController) Break(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	action := strings.TrimSpace(ctx.PostForm("action"))
	switch action {
	case "start":
		c.breakStart(ctx, userID)
	case "end":
		c.breakEnd(ctx, userID)
	default:
		utils.Error(ctx, http.StatusBadRequest, 40023, "action must be start or end")
	}
}

func (c *AttendanceController) breakStart(ctx *gin.Context, userID uint) {
	reason := utils.Sanitize(strings.TrimSpace(ctx.PostForm("reason")))
	if reason == "" {
		utils.Error(ctx, http.StatusBadRequest, 40024, "reason is required")
		return
	}

	now := c.now()
	att, err := c.todayRecord(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}
	if att == nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "no attendance record for today")
		return
	}
	if att.CheckOutAt != nil {
		utils.Error(ctx, http.StatusConflict, 40913, "day already closed")
		return
	}

	proofURL := ""
	if fh, ferr := ctx.FormFile("file"); ferr == nil {
		proofURL, err = utils.SaveUpload(ctx, c.db, userID, utils.UploadAttendance, fh)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40025, err.Error())
			return
		}
	}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.AttendanceBreak{}).
			Where("attendance_id = ? AND end_at IS NULL", att.ID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errBreakActive
		}
		brk := models.AttendanceBreak{
			AttendanceID: att.ID,
			StartAt:      now,
			Reason:       reason,
			ProofURL:     proofURL,
		}
		if err := tx.Create(&brk).Error; err != nil {
			return err
		}
		return tx.Model(att).Update("status", models.AttendanceOnBreak).Error
	})
	if err == errBreakActive {
		utils.Error(ctx, http.StatusConflict, 40914, "a break is already active")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to start break")
		return
	}

	utils.ClaimUpload(c.db, proofURL)
	c.invalidateToday(userID)
	utils.Success(ctx, gin.H{"status": models.AttendanceOnBreak, "break_start": now})
}

// breakEnd stamps the active break if any. Ending with no active break is a
// no-op that still resumes the status, matching the documented behavior. A
// closed day is terminal: after checkout the status is never rewritten.
func (c *AttendanceController) breakEnd(ctx *gin.Context, userID uint) {
	now := c.now()
	att, err := c.todayRecord(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}
	if att == nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "no attendance record for today")
		return
	}
	if att.CheckOutAt != nil {
		utils.Error(ctx, http.StatusConflict, 40913, "day already closed")
		return
	}

	var brk models.AttendanceBreak
	found := true
	if err := c.db.Where("attendance_id = ? AND end_at IS NULL", att.ID).First(&brk).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load break")
			return
		}
		found = false
	}

	if found {
		brk.EndAt = &now
		if err := c.db.Save(&brk).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to end break")
			return
		}
	}

	resumed := c.policy.resumeStatus(att.CheckInAt, att.PermissionID != nil)
	if err := c.db.Model(att).Update("status", resumed).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to update status")
		return
	}

	c.invalidateToday(userID)
	utils.Success(ctx, gin.H{"status": resumed, "break_closed": found})
}

// Today returns the derived status string for status polling, ABSENT when
// no row exists yet.
func (c *AttendanceController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	now := c.now()
	cacheKey := fmt.Sprintf("attendance:today:%d:%s", userID, models.DayStart(now).Format("2006-01-02"))
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	att, err := c.todayRecord(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}

	payload := gin.H{"status": models.AttendanceAbsent}
	if att != nil {
		payload = gin.H{
			"status":       att.Status,
			"check_in_at":  att.CheckInAt,
			"check_out_at": att.CheckOutAt,
		}
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 10*time.Second)
	utils.Success(ctx, payload)
}

// History lists the caller's attendance rows, newest first, with breaks.
func (c *AttendanceController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.Attendance
	var total int64
	q := c.db.Model(&models.Attendance{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count attendance")
		return
	}
	if err := c.db.Preload("Breaks").Where("user_id = ?", userID).
		Order("work_date DESC").Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// AdminList returns attendance rows across users with optional date range
// and user filters.
func (c *AttendanceController) AdminList(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	q := c.db.Model(&models.Attendance{})
	if v := ctx.Query("user_id"); v != "" {
		q = q.Where("user_id = ?", v)
	}
	if v := ctx.Query("from"); v != "" {
		if from, err := parseDate(v); err == nil {
			q = q.Where("work_date >= ?", from)
		}
	}
	if v := ctx.Query("to"); v != "" {
		if to, err := parseDate(v); err == nil {
			q = q.Where("work_date <= ?", to)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count attendance")
		return
	}
	var items []models.Attendance
	if err := q.Preload("Breaks").Order("work_date DESC, user_id").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// ResetToday deletes today's row and its breaks for the caller. Developer
// convenience only; the router exposes it outside release mode.
func (c *AttendanceController) ResetToday(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	now := c.now()
	att, err := c.todayRecord(userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load attendance")
		return
	}
	if att == nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "no attendance record for today")
		return
	}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attendance_id = ?", att.ID).Delete(&models.AttendanceBreak{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Attendance{}, att.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to reset attendance")
		return
	}

	c.invalidateToday(userID)
	utils.Success(ctx, gin.H{"message": "attendance reset"})
}

var errBreakActive = fmt.Errorf("break already active")

// todayRecord loads the caller's row for the current day, nil when absent.
func (c *AttendanceController) todayRecord(userID uint, now time.Time) (*models.Attendance, error) {
	day := models.DayStart(now)
	var att models.Attendance
	err := c.db.Where("user_id = ? AND work_date = ?", userID, day).First(&att).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// approvedLateArrival returns the approved LATE_ARRIVAL permission covering
// the given day, if any.
func (c *AttendanceController) approvedLateArrival(userID uint, day time.Time) *models.Permission {
	next := day.Add(24 * time.Hour)
	var perm models.Permission
	err := c.db.Where(
		"user_id = ? AND type = ? AND status = ? AND date >= ? AND date < ?",
		userID, models.PermissionLateArrival, models.PermissionApproved, day, next,
	).First(&perm).Error
	if err != nil {
		return nil
	}
	return &perm
}

func (c *AttendanceController) invalidateToday(userID uint) {
	utils.InvalidateByPrefix(fmt.Sprintf("attendance:today:%d:", userID))
}
