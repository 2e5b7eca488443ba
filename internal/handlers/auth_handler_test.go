package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"oncult-backend/internal/config"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpiry: 1},
	}
	t.Cleanup(func() { config.AppConfig = prev })
}

func signLogin(t *testing.T, message string) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27 // wallet convention

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func postLogin(t *testing.T, body AuthRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/login", NewAuthHandler().AuthenticateHandler)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateIssuesValidToken(t *testing.T) {
	setTestConfig(t)
	message := "oncult login nonce=abc123"
	address, signature := signLogin(t, message)

	w := postLogin(t, AuthRequest{
		UserAddress: address,
		Message:     message,
		Signature:   signature,
		ChainID:     84532,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	claims, err := ValidateJWTToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, address, claims.UserAddress)
	assert.Equal(t, uint64(84532), claims.ChainID)
}

func TestAuthenticateRejectsWrongSigner(t *testing.T) {
	setTestConfig(t)
	message := "oncult login nonce=abc123"
	_, signature := signLogin(t, message)
	otherAddress, _ := signLogin(t, message)

	w := postLogin(t, AuthRequest{
		UserAddress: otherAddress,
		Message:     message,
		Signature:   signature,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsTamperedMessage(t *testing.T) {
	setTestConfig(t)
	address, signature := signLogin(t, "original message")

	w := postLogin(t, AuthRequest{
		UserAddress: address,
		Message:     "tampered message",
		Signature:   signature,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateJWTTokenRejectsGarbage(t *testing.T) {
	setTestConfig(t)
	_, err := ValidateJWTToken("not-a-token")
	require.Error(t, err)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	setTestConfig(t)
	h := &AdminAuthHandler{}
	token, err := h.generateAdminJWTToken("ops")
	require.NoError(t, err)

	claims, err := ValidateAdminJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	// A buyer token must not pass admin validation with an admin role.
	buyerToken, err := generateJWTToken("0x742d35Cc6634C0532925a3b0F26750C66d78EB66", 84532)
	require.NoError(t, err)
	adminClaims, err := ValidateAdminJWTToken(buyerToken)
	if err == nil {
		assert.NotEqual(t, "admin", adminClaims.Role)
	}
}
