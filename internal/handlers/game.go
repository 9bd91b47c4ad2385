package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

type GameHandler struct {
	wallet  *services.RedisWallet
	oracle  services.PriceOracle
	store   services.RoundStore
	limiter *services.RateLimiter
}

func NewGameHandler(wallet *services.RedisWallet, oracle services.PriceOracle, store services.RoundStore, limiter *services.RateLimiter) *GameHandler {
	return &GameHandler{
		wallet:  wallet,
		oracle:  oracle,
		store:   store,
		limiter: limiter,
	}
}

// PlaceBet converts a USD stake into crypto at the current price and debits
// the player's wallet. The websocket place_bet event then registers the bet
// with the round ledger.
func (h *GameHandler) PlaceBet(c *gin.Context) {
	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed, err := h.limiter.Allow(c.Request.Context(), req.PlayerID, "bet", services.DefaultRateLimitBets, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many bets. Please wait."})
		return
	}

	player, err := h.wallet.GetPlayer(c.Request.Context(), req.PlayerID)
	if err != nil {
		if errors.Is(err, services.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	price, err := h.oracle.Price(c.Request.Context(), req.Currency)
	if err != nil {
		if errors.Is(err, services.ErrRateLimited) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Rate limit exceeded. Please try again after a short while.",
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price unavailable"})
		return
	}

	cryptoAmount := req.UsdAmount / price

	if player.Wallets[req.Currency] < cryptoAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		return
	}

	if err := h.wallet.Debit(c.Request.Context(), req.PlayerID, req.Currency, cryptoAmount); err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	txHash, err := models.GenerateTransactionHash()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	tx := &models.Transaction{
		ID:              models.GenerateTransactionID(),
		PlayerID:        req.PlayerID,
		Type:            models.TransactionTypeBet,
		UsdAmount:       req.UsdAmount,
		CryptoAmount:    cryptoAmount,
		Currency:        req.Currency,
		TransactionHash: txHash,
		PriceAtTime:     price,
		CreatedAt:       time.Now(),
	}

	if err := h.store.SaveTransaction(c.Request.Context(), tx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Bet placed",
		"cryptoAmount": cryptoAmount,
		"price":        price,
		"txHash":       txHash,
	})
}

// Cashout over REST is disabled; the websocket channel owns cashout timing.
func (h *GameHandler) Cashout(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "Use WebSocket for cashout"})
}

// Verify recomputes the crash point from a revealed seed and round ID so
// anyone can check a finished round.
func (h *GameHandler) Verify(c *gin.Context) {
	seed := c.Query("seed")
	roundID := c.Query("roundId")

	if seed == "" || roundID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seed and roundId are required"})
		return
	}

	crashPoint, hash := services.VerifyRound(seed, roundID)

	c.JSON(http.StatusOK, gin.H{
		"seed":       seed,
		"roundId":    roundID,
		"hash":       hash,
		"crashPoint": crashPoint,
	})
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.store.RecentRounds(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get round history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds": records,
		"count":  len(records),
	})
}
