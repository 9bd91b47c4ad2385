package models

import "fmt"

type BetRequest struct {
	PlayerID  string   `json:"playerId" binding:"required"`
	UsdAmount float64  `json:"usdAmount" binding:"required"`
	Currency  Currency `json:"currency" binding:"required"`
}

func (br *BetRequest) Validate() error {
	if br.PlayerID == "" {
		return fmt.Errorf("playerId is required")
	}
	if br.UsdAmount < 1 {
		return fmt.Errorf("minimum bet is $1")
	}
	if br.UsdAmount > 10000 {
		return fmt.Errorf("maximum bet is $10000")
	}
	if !br.Currency.Valid() {
		return fmt.Errorf("unsupported currency: %s", br.Currency)
	}

	return nil
}

// WSBetRequest is the websocket place_bet payload. cryptoAmount and price are
// echoed from the REST bet response so the ledger records the conversion the
// player actually paid.
type WSBetRequest struct {
	PlayerID     string   `json:"playerId"`
	UsdAmount    float64  `json:"usdAmount"`
	Currency     Currency `json:"currency"`
	CryptoAmount float64  `json:"cryptoAmount"`
	Price        float64  `json:"price"`
}

func (br *WSBetRequest) Validate() error {
	if br.PlayerID == "" {
		return fmt.Errorf("playerId is required")
	}
	if br.UsdAmount <= 0 {
		return fmt.Errorf("usdAmount must be positive")
	}
	if !br.Currency.Valid() {
		return fmt.Errorf("unsupported currency: %s", br.Currency)
	}
	if br.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}

	return nil
}

type WSCashoutRequest struct {
	PlayerID string `json:"playerId"`
}
