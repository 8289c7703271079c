package models

import "time"

// Project is a team showcase entity with many-to-many membership carrying a
// role per member. Mutated by its creator or an admin.
type Project struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatorID    uint            `gorm:"index;not null" json:"creator_id"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description"`
	RepoURL      string          `gorm:"size:512" json:"repo_url"`
	DemoURL      string          `gorm:"size:512" json:"demo_url"`
	ThumbnailURL string          `gorm:"size:512" json:"thumbnail_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Members      []ProjectMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"members"`
	Creator      User            `gorm:"foreignKey:CreatorID" json:"-"`
}

// ProjectMember joins users to projects with a per-member role string.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_member" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_project_member" json:"user_id"`
	Role      string    `gorm:"size:64" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
