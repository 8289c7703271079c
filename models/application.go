package models

import "time"

// Application review states. Status is mutated only by an admin.
const (
	ApplicationPending  = "PENDING"
	ApplicationAccepted = "ACCEPTED"
	ApplicationRejected = "REJECTED"
)

// Application holds an applicant's internship request. Exactly one row per
// user; submissions upsert on UserID.
type Application struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName      string     `gorm:"size:128;not null" json:"full_name"`
	StudentNumber string     `gorm:"size:64" json:"student_number"`
	Major         string     `gorm:"size:128" json:"major"`
	Semester      int        `json:"semester"`
	Phone         string     `gorm:"size:32" json:"phone"`
	StartDate     time.Time  `gorm:"not null" json:"start_date"`
	EndDate       time.Time  `gorm:"not null" json:"end_date"`
	CoverLetter   string     `gorm:"type:text" json:"cover_letter"`
	TranscriptURL string     `gorm:"size:512" json:"transcript_url"`
	RequestURL    string     `gorm:"size:512" json:"request_url"` // campus request letter
	Status        string     `gorm:"size:16;not null;default:PENDING" json:"status"`
	ReviewNote    string     `gorm:"size:512" json:"review_note"`
	ReviewedBy    *uint      `json:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	User          User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
