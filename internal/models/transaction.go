package models

import "time"

type TransactionType string

const (
	TransactionTypeBet     TransactionType = "bet"
	TransactionTypeCashout TransactionType = "cashout"
	TransactionTypeRefund  TransactionType = "refund"
)

type Transaction struct {
	ID              string          `json:"id" redis:"id"`
	PlayerID        string          `json:"player_id" redis:"player_id"`
	Type            TransactionType `json:"type" redis:"type"`
	UsdAmount       float64         `json:"usd_amount" redis:"usd_amount"`
	CryptoAmount    float64         `json:"crypto_amount" redis:"crypto_amount"`
	Currency        Currency        `json:"currency" redis:"currency"`
	TransactionHash string          `json:"transaction_hash" redis:"transaction_hash"`
	PriceAtTime     float64         `json:"price_at_time" redis:"price_at_time"`
	CreatedAt       time.Time       `json:"created_at" redis:"created_at"`
}
