package models

import "time"

// Attendance status values. ABSENT is implicit: no row for the day.
const (
	AttendancePresent     = "PRESENT"
	AttendanceLate        = "LATE"
	AttendanceLateExcused = "LATE_EXCUSED"
	AttendanceEarlyLeave  = "EARLY_LEAVE"
	AttendanceOnBreak     = "ON_BREAK"
	AttendanceAbsent      = "ABSENT"
)

// Attendance is one row per user per calendar day. The composite unique
// index backs the atomic ON CONFLICT insert that enforces the one
// check-in per day invariant at the storage layer.
type Attendance struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"not null;uniqueIndex:idx_attendance_user_day" json:"user_id"`
	WorkDate     time.Time         `gorm:"not null;uniqueIndex:idx_attendance_user_day" json:"work_date"`
	CheckInAt    time.Time         `gorm:"not null" json:"check_in_at"`
	CheckOutAt   *time.Time        `json:"check_out_at"`
	Status       string            `gorm:"size:16;not null" json:"status"`
	DistanceM    float64           `json:"distance_m"` // geofence distance at check-in
	PermissionID *uint             `json:"permission_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Breaks       []AttendanceBreak `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"breaks"`
	User         User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// AttendanceBreak records a temporary absence inside a workday. EndAt stays
// nil while the break is active; at most one break per attendance record may
// be active at a time.
type AttendanceBreak struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AttendanceID uint       `gorm:"index;not null" json:"attendance_id"`
	StartAt      time.Time  `gorm:"not null" json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	Reason       string     `gorm:"size:255;not null" json:"reason"`
	ProofURL     string     `gorm:"size:512" json:"proof_url"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DayStart truncates t to midnight in its location, the canonical WorkDate.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
