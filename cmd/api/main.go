package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"crypto-crash-backend/internal/config"
	"crypto-crash-backend/internal/handlers"
	"crypto-crash-backend/internal/services"
)

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
	store := services.NewRedisRoundStore(redisClient)
	oracle := services.NewRedisPriceOracle(redisClient)
	limiter := services.NewRateLimiter(redisClient)

	fetcher := services.NewPriceFetcher(redisClient, cfg.CMCAPIKey, cfg.PricePollInterval)
	go fetcher.Run(context.Background())

	ledger := services.NewBetLedger(wallet, store)

	hub := handlers.NewWebSocketHub()
	scheduler := services.NewRoundScheduler(ledger, hub, store, cfg.TickInterval, cfg.RoundCooldown)
	wsHandler := handlers.NewWebSocketHandler(hub, scheduler, ledger, limiter)

	gameHandler := handlers.NewGameHandler(wallet, oracle, store, limiter)
	walletHandler := handlers.NewWalletHandler(wallet, oracle)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/ws", wsHandler.HandleWebSocket)

	api := router.Group("/api")
	{
		game := api.Group("/game")
		{
			game.POST("/bet", gameHandler.PlaceBet)
			game.POST("/cashout", gameHandler.Cashout)
			game.GET("/verify", gameHandler.Verify)
			game.GET("/history", gameHandler.GetHistory)
		}

		walletRoutes := api.Group("/wallet")
		{
			walletRoutes.GET("/prices", walletHandler.GetPrices)
			walletRoutes.GET("/:playerId", walletHandler.GetBalance)
		}
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
