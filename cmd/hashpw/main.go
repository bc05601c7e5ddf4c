// cmd/hashpw/main.go
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/pkg/auth"
)

// Prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpw <password> [cost]
func main() {
	log := logrus.New()

	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/hashpw <password> [cost]")
	}

	password := os.Args[1]
	if err := auth.ValidatePassword(password); err != nil {
		log.WithError(err).Fatal("Password rejected")
	}

	cost := 12
	if len(os.Args) > 2 {
		if _, err := fmt.Sscanf(os.Args[2], "%d", &cost); err != nil {
			log.WithError(err).Fatal("Invalid cost")
		}
	}

	pm := auth.NewPasswordManager(cost)
	hash, err := pm.HashPassword(password)
	if err != nil {
		log.WithError(err).Fatal("Error generating hash")
	}

	if err := pm.VerifyPassword(password, hash); err != nil {
		log.WithError(err).Fatal("Hash verification failed")
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
