package models

import "time"

// UploadedFile records every locally stored upload. Rows start unclaimed;
// attaching the URL to an owning record claims them. The orphan sweeper
// removes unclaimed files older than the configured TTL.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Purpose   string    `gorm:"size:32;not null" json:"purpose"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"`
	URL       string    `gorm:"size:1024;not null;index" json:"url"`
	Claimed   bool      `gorm:"not null;default:false" json:"claimed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
