package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/playmatatu/poolsim/internal/auth"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	clientID := os.Getenv("CLIENT_ID")
	if clientID == "" {
		clientID = "trainer"
		log.Printf("Using default client id: %s", clientID)
	}

	name := os.Getenv("CLIENT_NAME")
	if name == "" {
		name = clientID
	}

	key := os.Getenv("CLIENT_KEY")
	if key == "" {
		key, err = auth.GenerateKey()
		if err != nil {
			log.Fatalf("Failed to generate client key: %v", err)
		}
		log.Printf("Generated a new client key; store it now, it is not recoverable")
	}

	if err := auth.CreateClient(db, clientID, name, key); err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	log.Printf("✓ API client created/updated successfully")
	log.Printf("  Client ID: %s", clientID)
	log.Printf("  Name: %s", name)
	log.Println("\nExchange the key for a token at POST /api/v1/auth/token with:")
	log.Printf("  client_id: %s", clientID)
	log.Printf("  client_key: %s", key)
}
