package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"internhub/config"
	"internhub/models"
	"internhub/utils"
)

const tokenTTL = 72 * time.Hour

// AuthController handles account registration, login and profile endpoints,
// including the Google OAuth alternate path and face enrollment.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=64"`
		Confirm  string `json:"confirm" binding:"required"`
		Agency   string `json:"agency"`
		Campus   string `json:"campus"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}

	var existing models.User
	if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         models.RoleUser,
		Agency:       utils.Sanitize(strings.TrimSpace(req.Agency)),
		Campus:       utils.Sanitize(strings.TrimSpace(req.Campus)),
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40004, "missing bearer token")
		return
	}
	tokenStr := strings.TrimSpace(parts[1])

	claims, err := utils.ParseToken(tokenStr)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	utils.BlacklistToken(tokenStr, claims.ExpiresAt.Time)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"user": publicUser(user)})
}

// UpdateProfile mutates editable profile fields, optionally with an avatar upload.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if v := strings.TrimSpace(ctx.PostForm("email")); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(ctx.PostForm("agency")); v != "" {
		user.Agency = utils.Sanitize(v)
	}
	if v := strings.TrimSpace(ctx.PostForm("campus")); v != "" {
		user.Campus = utils.Sanitize(v)
	}
	if fh, err := ctx.FormFile("avatar"); err == nil {
		url, uerr := utils.SaveUpload(ctx, a.db, userID, utils.UploadAvatars, fh)
		if uerr != nil {
			utils.Error(ctx, http.StatusBadRequest, 40005, uerr.Error())
			return
		}
		user.AvatarURL = url
		utils.ClaimUpload(a.db, url)
	}

	if err := a.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to update profile")
		return
	}

	utils.Success(ctx, gin.H{"user": publicUser(user)})
}

// ListUsers returns paginated users for the admin console.
func (a *AuthController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var users []models.User
	var total int64
	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to count users")
		return
	}
	if err := a.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to retrieve users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, publicUser(u))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// EnrollFace stores the caller's face descriptor, overwriting any previous
// enrollment for the account.
func (a *AuthController) EnrollFace(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Descriptor []float64 `json:"descriptor" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	encoded, err := utils.EncodeDescriptor(req.Descriptor)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, err.Error())
		return
	}

	now := time.Now()
	if err := a.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"face_descriptor": encoded, "face_enrolled_at": now}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to store descriptor")
		return
	}

	utils.Success(ctx, gin.H{"enrolled_at": now})
}

// ResetFace nulls a user's stored descriptor so they must re-enroll.
// Admin only.
func (a *AuthController) ResetFace(ctx *gin.Context) {
	var user models.User
	if err := a.db.First(&user, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if err := a.db.Model(&user).
		Updates(map[string]interface{}{"face_descriptor": "", "face_enrolled_at": nil}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to reset descriptor")
		return
	}

	utils.Success(ctx, gin.H{"message": "face enrollment reset"})
}

// OAuthGoogleRedirect starts the Google login flow.
func (a *AuthController) OAuthGoogleRedirect(ctx *gin.Context) {
	cfg, err := a.googleConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	utils.Success(ctx, gin.H{"authorization_url": cfg.AuthCodeURL(state), "state": state})
}

// OAuthGoogleCallback exchanges the authorization code for a user identity
// and issues a JWT, creating the account on first login.
func (a *AuthController) OAuthGoogleCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40009, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid or expired state")
		return
	}

	cfg, err := a.googleConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, err.Error())
		return
	}

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "failed to exchange code")
		return
	}

	info, err := fetchGoogleUser(cfg, token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to fetch user info")
		return
	}

	var user models.User
	err = a.db.Where("provider = ? AND provider_id = ?", "google", info.ID).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			Username:   uniqueUsername(a.db, info.Email),
			Email:      info.Email,
			Role:       models.RoleUser,
			Provider:   "google",
			ProviderID: info.ID,
			AvatarURL:  info.Picture,
		}
		err = a.db.Create(&user).Error
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load user")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": publicUser(user)})
}

func (a *AuthController) googleConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("google oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleUser(cfg *oauth2.Config, token *oauth2.Token) (*googleUserInfo, error) {
	client := cfg.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// uniqueUsername derives a username from an email local part, suffixing on
// collision.
func uniqueUsername(db *gorm.DB, email string) string {
	base := strings.SplitN(email, "@", 2)[0]
	if base == "" {
		base = "user"
	}
	name := base
	for i := 0; i < 10; i++ {
		var count int64
		db.Model(&models.User{}).Where("username = ?", name).Count(&count)
		if count == 0 {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i+2)
	}
	return base + uuid.NewString()[:8]
}

// publicUser strips credential and biometric fields from API payloads.
func publicUser(u models.User) gin.H {
	return gin.H{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"role":          u.Role,
		"agency":        u.Agency,
		"campus":        u.Campus,
		"avatar_url":    u.AvatarURL,
		"face_enrolled": u.FaceDescriptor != "",
		"created_at":    u.CreatedAt,
	}
}
