package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
)

const (
	MinCrashPoint = 1.01
	MaxCrashPoint = 20.0
)

// GenerateSeed returns a fresh 16-byte (128-bit) hex seed for one round.
func GenerateSeed() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

// ComputeHash is the public commitment for a round: SHA-256 of the seed
// concatenated with the round ID, hex encoded. Revealed at crash time so any
// party can recompute the crash point.
func ComputeHash(seed, roundID string) string {
	hash := sha256.Sum256([]byte(seed + roundID))
	return hex.EncodeToString(hash[:])
}

// ComputeCrashPoint derives the crash multiplier from a round hash.
//
// The first 13 hex characters (52 bits) normalize to r in [0,1); the
// exponential model floor(100/(1-r))/100 weights the distribution toward low
// multipliers, clamped to [1.01, 20.0]. Pure and bit-for-bit reproducible.
func ComputeCrashPoint(hash string) float64 {
	prefix := hash
	if len(prefix) > 13 {
		prefix = prefix[:13]
	}

	n := new(big.Int)
	n.SetString(prefix, 16)

	randFloat := float64(n.Int64()) / math.Pow(2, 52)

	if randFloat == 0 {
		return MinCrashPoint
	}

	crashPoint := math.Floor(100/(1-randFloat)) / 100.0

	if crashPoint < MinCrashPoint {
		crashPoint = MinCrashPoint
	}
	if crashPoint > MaxCrashPoint {
		crashPoint = MaxCrashPoint
	}

	return crashPoint
}

// VerifyRound recomputes the hash and crash point for a revealed seed so
// players can check the round was fair.
func VerifyRound(seed, roundID string) (float64, string) {
	hash := ComputeHash(seed, roundID)
	return ComputeCrashPoint(hash), hash
}
