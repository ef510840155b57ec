// Command gentoken prints a JWT for local testing of authenticated routes.
package main

import (
	"flag"
	"fmt"
	"log"

	"codeberg.org/citelens/server/internal/auth"
	"codeberg.org/citelens/server/internal/config"
	"github.com/google/uuid"
)

func main() {
	userID := flag.String("user", "", "user id (random when empty)")
	email := flag.String("email", "test@citelens.app", "email claim")
	flag.Parse()

	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *userID == "" {
		*userID = uuid.NewString()
	}

	token, err := auth.NewManager(cfg.JWTSecret, 0).Generate(*userID, *email)
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("User ID: %s\n\n", *userID)
	fmt.Printf("Test JWT Token:\n%s\n\n", token)
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", token)
}
