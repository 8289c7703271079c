package utils

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"internhub/config"
	"internhub/models"
)

// Upload purpose directory names under the public upload tree.
const (
	UploadAttendance   = "attendance"
	UploadApplications = "applications"
	UploadProjects     = "projects"
	UploadAvatars      = "avatars"
)

var (
	ErrUploadTooLarge = errors.New("file exceeds the upload size limit")
	ErrUploadType     = errors.New("file type not allowed")
)

// allowedExt maps each purpose to its accepted extensions: images for
// thumbnails/avatars, images + PDF for proofs and documents.
var allowedExt = map[string]map[string]bool{
	UploadAttendance:   {".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true},
	UploadApplications: {".jpg": true, ".jpeg": true, ".png": true, ".pdf": true},
	UploadProjects:     {".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
	UploadAvatars:      {".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
}

// SaveUpload persists an uploaded file under the purpose-partitioned public
// tree and records it as unclaimed for the orphan sweeper. It returns the
// relative URL to store on the owning row.
func SaveUpload(ctx *gin.Context, db *gorm.DB, userID uint, purpose string, fh *multipart.FileHeader) (string, error) {
	cfg := config.Get()

	maxBytes := int64(cfg.UploadMaxMB) * 1024 * 1024
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", ErrUploadTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if exts, ok := allowedExt[purpose]; !ok || !exts[ext] {
		return "", ErrUploadType
	}

	now := time.Now()
	dir := filepath.Join(cfg.UploadDir, purpose, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)
	if err := ctx.SaveUploadedFile(fh, dst); err != nil {
		return "", err
	}

	url := "/" + filepath.ToSlash(dst)
	if db != nil {
		record := models.UploadedFile{UserID: userID, Purpose: purpose, FilePath: dst, URL: url}
		if err := db.Create(&record).Error; err != nil && Sugar != nil {
			Sugar.Warnf("upload record failed path=%s err=%v", dst, err)
		}
	}
	return url, nil
}

// ClaimUpload marks an uploaded file as attached to an owning record so the
// orphan sweeper leaves it alone.
func ClaimUpload(db *gorm.DB, url string) {
	if url == "" || db == nil {
		return
	}
	if err := db.Model(&models.UploadedFile{}).Where("url = ?", url).Update("claimed", true).Error; err != nil && Sugar != nil {
		Sugar.Warnf("upload claim failed url=%s err=%v", url, err)
	}
}

// StartOrphanSweeper launches a background goroutine that periodically
// deletes unclaimed uploads older than the configured TTL. Best effort: a
// file saved but never attached (e.g. the DB write after it failed) is
// removed here instead of lingering on disk.
func StartOrphanSweeper(db *gorm.DB, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	go func() {
		for {
			time.Sleep(interval)
			cutoff := time.Now().Add(-ttl)
			var items []models.UploadedFile
			if err := db.Where("claimed = ? AND created_at <= ?", false, cutoff).Limit(100).Find(&items).Error; err != nil {
				if Sugar != nil {
					Sugar.Warnf("orphan sweep query failed: %v", err)
				}
				continue
			}
			for _, it := range items {
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil && Sugar != nil {
					Sugar.Warnf("orphan sweep delete row failed: %v", err)
				}
			}
			if len(items) > 0 && Sugar != nil {
				Sugar.Infof("orphan sweep removed %d unclaimed uploads", len(items))
			}
		}
	}()
}
