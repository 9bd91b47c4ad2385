package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// GenerateTransactionHash produces a mock 12-byte blockchain hash for
// simulated transactions.
func GenerateTransactionHash() (string, error) {
	bytes := make([]byte, 12)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate transaction hash: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

func CalculatePayout(cryptoAmount, multiplier float64) float64 {
	return cryptoAmount * multiplier
}
