package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"crypto-crash-backend/internal/config"
	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

// Seeds a handful of demo players with starting balances so the game can be
// exercised locally.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisClient, err := services.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	wallet := services.NewRedisWallet(redisClient)
	ctx := context.Background()

	usernames := []string{"alice", "bob", "charlie", "diana", "eve"}

	for i, username := range usernames {
		player := models.NewPlayer(fmt.Sprintf("player_%d", i+1), username)

		if err := wallet.SavePlayer(ctx, player); err != nil {
			log.Fatalf("Failed to seed player %s: %v", username, err)
		}

		log.Printf("Seeded player %s (%s) with %v", player.ID, player.Username, player.Wallets)
	}

	log.Printf("Seeded %d players", len(usernames))
}
