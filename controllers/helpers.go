package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"internhub/middleware"
)

// getUserID extracts the authenticated user ID stored by AuthRequired.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// isAdmin reports whether the request carries the admin role claim.
func isAdmin(ctx *gin.Context) bool {
	v, _ := ctx.Get(middleware.ContextRoleKey)
	role, _ := v.(string)
	return role == "ADMIN"
}

// parsePagination reads page/page_size query values with sane bounds.
func parsePagination(pageStr, sizeStr string) (int, int) {
	page, pageSize := 1, 10
	if v := strings.TrimSpace(pageStr); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(sizeStr); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// parseDate accepts the wire date format used across the API.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
}
