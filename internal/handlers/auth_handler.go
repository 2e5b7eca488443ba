package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"oncult-backend/internal/config"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// AuthHandler issues buyer JWT tokens against a wallet signature
type AuthHandler struct{}

// NewAuthHandler creates the buyer auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// AuthRequest is the wallet-signature login payload
type AuthRequest struct {
	UserAddress string `json:"user_address" binding:"required"`
	Message     string `json:"message" binding:"required"`
	Signature   string `json:"signature" binding:"required"`
	ChainID     uint64 `json:"chain_id"`
}

// AuthResponse carries the issued token
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// JWTClaims are the buyer token claims
type JWTClaims struct {
	UserAddress string `json:"user_address"`
	ChainID     uint64 `json:"chain_id"`
	jwt.RegisteredClaims
}

// AuthenticateHandler verifies a personal_sign signature over the
// login message and issues a JWT for the recovered address.
// POST /api/auth/login
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AuthResponse{
			Success: false,
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	if !verifyPersonalSignature(req.UserAddress, req.Message, req.Signature) {
		logrus.WithField("user_address", req.UserAddress).Warn("login signature verification failed")
		c.JSON(http.StatusUnauthorized, AuthResponse{
			Success: false,
			Message: "signature verification failed",
		})
		return
	}

	token, err := generateJWTToken(req.UserAddress, req.ChainID)
	if err != nil {
		logrus.WithError(err).Error("JWT generation failed")
		c.JSON(http.StatusInternalServerError, AuthResponse{
			Success: false,
			Message: "token generation failed",
		})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Success: true, Token: token, Message: "authenticated"})
}

// GenerateNonceHandler hands out a random nonce for the client to
// embed in the signed login message.
// GET /api/auth/nonce
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "nonce generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"nonce":   hex.EncodeToString(nonce),
	})
}

// verifyPersonalSignature recovers the signer of an EIP-191 personal
// message and compares it to the claimed address.
func verifyPersonalSignature(userAddress, message, signature string) bool {
	if !common.IsHexAddress(userAddress) {
		return false
	}
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return false
	}
	// Wallets return V as 27/28; SigToPub wants 0/1.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return false
	}
	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), userAddress)
}

func generateJWTToken(userAddress string, chainID uint64) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserAddress: common.HexToAddress(userAddress).Hex(),
		ChainID:     chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AppConfig.TokenExpiry())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.Auth.JWTSecret))
}

// ValidateJWTToken parses and verifies a buyer token
func ValidateJWTToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
