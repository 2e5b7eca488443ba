package handlers

import (
	"fmt"
	"net/http"
	"time"

	"oncult-backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenExpiry = 2 * time.Hour

// AdminAuthHandler issues admin JWT tokens. Login requires both the
// bcrypt-hashed admin password and a valid TOTP code.
type AdminAuthHandler struct {
	passwordHash string
	totpSecret   string
}

// NewAdminAuthHandler creates the admin auth handler from config
func NewAdminAuthHandler() *AdminAuthHandler {
	cfg := config.AppConfig.Admin
	if cfg.PasswordHash == "" || cfg.TOTPSecret == "" {
		logrus.Warn("admin credentials not configured; admin login disabled")
	}
	return &AdminAuthHandler{
		passwordHash: cfg.PasswordHash,
		totpSecret:   cfg.TOTPSecret,
	}
}

// AdminLoginRequest is the two-factor admin login payload
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// AdminJWTClaims are the admin token claims
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AdminLoginHandler checks password and TOTP code, then issues an
// admin token.
// POST /api/admin/login
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	if h.passwordHash == "" || h.totpSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Admin login is not configured",
		})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		logrus.WithField("username", req.Username).Warn("admin login failed - wrong password")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	if !totp.Validate(req.TOTPCode, h.totpSecret) {
		logrus.WithField("username", req.Username).Warn("admin login failed - invalid TOTP code")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	token, err := h.generateAdminJWTToken(req.Username)
	if err != nil {
		logrus.WithError(err).Error("admin JWT generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token generation failed"})
		return
	}

	logrus.WithField("username", req.Username).Info("admin login succeeded")
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *AdminAuthHandler) generateAdminJWTToken(username string) (string, error) {
	now := time.Now()
	claims := AdminJWTClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.Auth.JWTSecret))
}

// ValidateAdminJWTToken parses and verifies an admin token
func ValidateAdminJWTToken(tokenString string) (*AdminJWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminJWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
