// Command generate-jwt mints a buyer token for local API testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirror the server's buyer token claims.
type claims struct {
	UserAddress string `json:"user_address"`
	ChainID     uint64 `json:"chain_id"`
	jwt.RegisteredClaims
}

func main() {
	address := flag.String("address", "0x742d35Cc6634C0532925a3b0F26750C66d78EB66", "buyer address")
	chainID := flag.Uint64("chain", 84532, "chain id")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserAddress: *address,
		ChainID:     *chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*expiry)),
		},
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "token generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
