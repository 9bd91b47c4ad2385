package models

import "time"

type RoundStatus string

const (
	RoundIdle     RoundStatus = "idle"
	RoundRunning  RoundStatus = "running"
	RoundCrashed  RoundStatus = "crashed"
	RoundCooldown RoundStatus = "cooldown"
)

// Round is one cycle of the crash game. Seed and Hash stay server-side until
// the crash reveal; only RoundID is published at round start.
type Round struct {
	RoundID    string      `json:"round_id" redis:"round_id"`
	Seed       string      `json:"seed" redis:"seed"`
	Hash       string      `json:"hash" redis:"hash"`
	CrashPoint float64     `json:"crash_point" redis:"crash_point"`
	Multiplier float64     `json:"multiplier" redis:"multiplier"`
	Status     RoundStatus `json:"status" redis:"status"`
	StartTime  time.Time   `json:"start_time" redis:"start_time"`
	EndTime    time.Time   `json:"end_time" redis:"end_time"`
}

type BetStatus string

const (
	BetUnresolved BetStatus = "unresolved"
	BetCashedOut  BetStatus = "cashed_out"
	BetLost       BetStatus = "lost"
)

// Bet is a single player's stake in a round. A bet is mutated exactly once,
// on cashout or on the crash sweep, and is immutable afterwards.
type Bet struct {
	PlayerID          string    `json:"player_id" redis:"player_id"`
	Currency          Currency  `json:"currency" redis:"currency"`
	CryptoAmount      float64   `json:"crypto_amount" redis:"crypto_amount"`
	UsdAmount         float64   `json:"usd_amount" redis:"usd_amount"`
	Price             float64   `json:"price" redis:"price"`
	Status            BetStatus `json:"status" redis:"status"`
	CashoutMultiplier float64   `json:"cashout_multiplier,omitempty" redis:"cashout_multiplier"`
	Won               bool      `json:"won" redis:"won"`
	PlacedAt          time.Time `json:"placed_at" redis:"placed_at"`
}

// RoundRecord is the persisted form of a completed round: the fairness
// material plus every resolved bet, in resolution order.
type RoundRecord struct {
	RoundID    string    `json:"round_id"`
	Seed       string    `json:"seed"`
	Hash       string    `json:"hash"`
	CrashPoint float64   `json:"crash_point"`
	Bets       []Bet     `json:"bets"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type CashoutResult struct {
	PlayerID     string   `json:"player_id"`
	Currency     Currency `json:"currency"`
	PayoutCrypto float64  `json:"crypto"`
	PayoutUsd    float64  `json:"usd"`
	Multiplier   float64  `json:"multiplier"`
}
