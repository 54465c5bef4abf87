package main

import (
	"flag"
	"log"

	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/database"

	"github.com/joho/godotenv"
)

// Ops tool: reset a user's password from the CLI.
//
//	go run ./cmd/reset-password -email user@example.com -password newpass
func main() {
	email := flag.String("email", "", "email of the user")
	password := flag.String("password", "", "new password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	db := database.ConnectDB()
	userRepo := repository.NewUserRepo(db)

	user, err := userRepo.FindByEmail(*email)
	if err != nil {
		log.Fatalf("user %s not found: %v", *email, err)
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	// Invalidate any live session along with the password change
	user.TokenVersion = ""
	if err := userRepo.Update(user); err != nil {
		log.Fatalf("failed to update user: %v", err)
	}

	log.Printf("password reset for %s", *email)
}
