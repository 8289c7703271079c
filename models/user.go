package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values stored on User.Role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a portal account. Passwords are stored as bcrypt hashes
// only; the face descriptor is a fixed-length numeric vector serialized as
// comma-separated text and is nulled by an admin reset.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string         `gorm:"size:255" json:"email"`
	PasswordHash   string         `gorm:"size:255" json:"-"`
	Role           string         `gorm:"size:16;not null;default:USER" json:"role"`
	Agency         string         `gorm:"size:128" json:"agency"`
	Campus         string         `gorm:"size:128" json:"campus"`
	AvatarURL      string         `gorm:"size:512" json:"avatar_url"`
	Provider       string         `gorm:"size:32" json:"provider"`
	ProviderID     string         `gorm:"size:255" json:"-"`
	FaceDescriptor string         `gorm:"type:text" json:"-"`
	FaceEnrolledAt *time.Time     `json:"face_enrolled_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
