package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

type WalletHandler struct {
	wallet *services.RedisWallet
	oracle services.PriceOracle
}

func NewWalletHandler(wallet *services.RedisWallet, oracle services.PriceOracle) *WalletHandler {
	return &WalletHandler{
		wallet: wallet,
		oracle: oracle,
	}
}

// GetBalance returns a player's holdings per currency, in crypto and in USD
// at a fresh price.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	playerID := c.Param("playerId")

	player, err := h.wallet.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		if errors.Is(err, services.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	balances := make(map[models.Currency]models.WalletBalance, len(player.Wallets))
	for currency, amount := range player.Wallets {
		price, err := h.oracle.Price(c.Request.Context(), currency)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price unavailable"})
			return
		}

		balances[currency] = models.WalletBalance{
			Crypto: amount,
			Usd:    amount * price,
		}
	}

	c.JSON(http.StatusOK, balances)
}

// GetPrices returns the current USD price per supported currency.
func (h *WalletHandler) GetPrices(c *gin.Context) {
	prices := make(map[models.Currency]float64, len(models.SupportedCurrencies()))

	for _, currency := range models.SupportedCurrencies() {
		price, err := h.oracle.Price(c.Request.Context(), currency)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prices"})
			return
		}
		prices[currency] = price
	}

	c.JSON(http.StatusOK, prices)
}
