package models

import "time"

// Permission request types.
const (
	PermissionLeave       = "LEAVE"
	PermissionSick        = "SICK"
	PermissionLateArrival = "LATE_ARRIVAL"
)

// Permission review states. APPROVED and REJECTED are terminal.
const (
	PermissionPending  = "PENDING"
	PermissionApproved = "APPROVED"
	PermissionRejected = "REJECTED"
)

// Permission is an applicant-submitted absence/lateness request, reviewed
// independently by an admin. Check-in consults only APPROVED LATE_ARRIVAL
// rows matching the check-in date; other types are informational.
type Permission struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Type       string     `gorm:"size:16;not null" json:"type"`
	Date       time.Time  `gorm:"not null;index" json:"date"`
	Reason     string     `gorm:"size:512;not null" json:"reason"`
	ProofURL   string     `gorm:"size:512" json:"proof_url"`
	Status     string     `gorm:"size:16;not null;default:PENDING" json:"status"`
	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
