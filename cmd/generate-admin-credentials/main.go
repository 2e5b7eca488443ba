// Command generate-admin-credentials produces the bcrypt password hash
// and TOTP secret the admin login requires.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := flag.String("password", "", "admin password to hash")
	issuer := flag.String("issuer", "oncult-backend", "TOTP issuer name")
	account := flag.String("account", "admin", "TOTP account name")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: generate-admin-credentials -password <password>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "password hashing failed: %v\n", err)
		os.Exit(1)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      *issuer,
		AccountName: *account,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "TOTP generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", string(hash))
	fmt.Printf("ADMIN_TOTP_SECRET=%s\n", key.Secret())
	fmt.Printf("otpauth URL: %s\n", key.URL())
}
