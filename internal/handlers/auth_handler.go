package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/earnkart/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles signup and login
type AuthHandler struct {
	db      *gorm.DB
	wallets *wallet.WalletService
	cfg     *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, wallets *wallet.WalletService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, wallets: wallets, cfg: cfg}
}

// SignupRequest is the signup payload. ReferralCode is optional; when present
// it fixes the new user's upstream referrer permanently.
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username" binding:"required,min=3,max=50"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ReferralCode string `json:"referral_code"`
}

// Signup registers a new user
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var upstream *models.User
	if req.ReferralCode != "" {
		var referrer models.User
		if err := h.db.Where("referral_code = ?", req.ReferralCode).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown referral code"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		upstream = &referrer
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		ReferralCode: utils.GenerateReferralCode(req.Username),
	}
	if upstream != nil {
		user.ReferredByID = &upstream.ID
	}

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email or username already in use"})
		return
	}

	if _, err := h.wallets.GetOrCreateWallet(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create wallet"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"referral_code": user.ReferralCode,
	})
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and returns a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", now)

	expiration := time.Duration(h.cfg.JWT.Expiration) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin, expiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(expiration.Seconds()),
	})
}
