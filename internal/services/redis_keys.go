package services

import "time"

const (
	KeyPlayer             = "player:%s"
	KeyCryptoPrices       = "crypto:price"
	KeyRound              = "round:%s"
	KeyRoundHistory       = "rounds:history"
	KeyTransaction        = "transaction:%s"
	KeyPlayerTransactions = "player:%s:transactions"
	KeyRateLimit          = "ratelimit:%s:%s"

	TTLCryptoPrices = 60 * time.Second
	TTLRound        = 30 * 24 * time.Hour // 30 days
	TTLTransaction  = 30 * 24 * time.Hour // 30 days

	DefaultRateLimitBets     = 30 // Max 30 bets per minute
	DefaultRateLimitCashouts = 60 // Max 60 cashouts per minute
)
