package models

import "time"

type Currency string

const (
	CurrencyBTC Currency = "BTC"
	CurrencyETH Currency = "ETH"
)

func SupportedCurrencies() []Currency {
	return []Currency{CurrencyBTC, CurrencyETH}
}

func (c Currency) Valid() bool {
	switch c {
	case CurrencyBTC, CurrencyETH:
		return true
	}
	return false
}

type Player struct {
	ID       string               `json:"id" redis:"id"`
	Username string               `json:"username" redis:"username"`
	Wallets  map[Currency]float64 `json:"wallets" redis:"wallets"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
}

// NewPlayer starts every demo player with 1.0 of each supported currency.
func NewPlayer(id, username string) *Player {
	wallets := make(map[Currency]float64, len(SupportedCurrencies()))
	for _, c := range SupportedCurrencies() {
		wallets[c] = 1.0
	}

	now := time.Now()

	return &Player{
		ID:        id,
		Username:  username,
		Wallets:   wallets,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type WalletBalance struct {
	Crypto float64 `json:"crypto"`
	Usd    float64 `json:"usd"`
}
