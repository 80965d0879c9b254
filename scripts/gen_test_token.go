package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"codeberg.org/portfolio/presence/internal/auth"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// mints an identity token for poking at /api/v1/ws by hand
func main() {
	name := flag.String("name", "Test User", "display name to pin")
	color := flag.Int("color", 0, "palette index")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("SESSION_SECRET not set")
	}

	issuer, err := auth.NewIssuer([]byte(secret), *ttl)
	if err != nil {
		log.Fatalf("Failed to create issuer: %v", err)
	}

	sessionID := uuid.New().String()

	token, expires, err := issuer.GenerateToken(sessionID, *name, *color)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("session: %s\nexpires: %s\n\n", sessionID, expires.Format(time.RFC3339))
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", token)
	fmt.Printf("\nws://localhost:8080/api/v1/ws?room=/&token=%s\n", token)
}
