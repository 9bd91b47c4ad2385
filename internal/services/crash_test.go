package services_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"crypto-crash-backend/internal/services"
)

func TestGenerateSeed(t *testing.T) {
	seed, err := services.GenerateSeed()
	if err != nil {
		t.Fatalf("Failed to generate seed: %v", err)
	}

	if len(seed) != 32 {
		t.Errorf("Expected 32 hex chars (16 bytes), got %d", len(seed))
	}

	other, _ := services.GenerateSeed()
	if seed == other {
		t.Error("Seeds should be unique")
	}
}

func TestComputeHashMatchesIndependentDigest(t *testing.T) {
	seed := "a3f1c2d4e5b6978812345678deadbeef"
	roundID := "1700000000000"

	hash := services.ComputeHash(seed, roundID)

	sum := sha256.Sum256([]byte(seed + roundID))
	expected := hex.EncodeToString(sum[:])

	if hash != expected {
		t.Errorf("Hash mismatch: expected %s, got %s", expected, hash)
	}

	if hash != services.ComputeHash(seed, roundID) {
		t.Error("ComputeHash should be deterministic")
	}
}

func TestComputeCrashPointRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		seed, err := services.GenerateSeed()
		if err != nil {
			t.Fatalf("Failed to generate seed: %v", err)
		}

		hash := services.ComputeHash(seed, "round")
		crashPoint := services.ComputeCrashPoint(hash)

		if crashPoint < services.MinCrashPoint || crashPoint > services.MaxCrashPoint {
			t.Fatalf("Crash point out of range for hash %s: %.2f", hash, crashPoint)
		}
	}
}

func TestComputeCrashPointDeterministic(t *testing.T) {
	hash := services.ComputeHash("someseed", "someround")

	first := services.ComputeCrashPoint(hash)
	for i := 0; i < 10; i++ {
		if services.ComputeCrashPoint(hash) != first {
			t.Fatal("ComputeCrashPoint should be deterministic for the same hash")
		}
	}
}

func TestComputeCrashPointZeroPrefix(t *testing.T) {
	// First 13 hex chars decode to 0: the r==0 branch must return 1.01.
	hash := "0000000000000abcdef0123456789abcdef0123456789abcdef0123456789abc"

	if got := services.ComputeCrashPoint(hash); got != 1.01 {
		t.Errorf("Expected 1.01 for all-zero prefix, got %.2f", got)
	}
}

func TestComputeCrashPointKnownValues(t *testing.T) {
	cases := []struct {
		prefix string
		want   float64
	}{
		// r = 0.5 -> floor(100/0.5)/100 = 2.00
		{"8000000000000", 2.00},
		// r = 0.25 -> floor(100/0.75)/100 = 1.33
		{"4000000000000", 1.33},
		// r ~= 1 -> uncapped value explodes, clamped to 20.0
		{"fffffffffffff", 20.0},
		// r = 0.0625 -> floor(100/0.9375)/100 = 1.06
		{"1000000000000", 1.06},
	}

	for _, tc := range cases {
		if got := services.ComputeCrashPoint(tc.prefix); got != tc.want {
			t.Errorf("ComputeCrashPoint(%s): expected %.2f, got %.2f", tc.prefix, tc.want, got)
		}
	}
}

func TestVerifyRound(t *testing.T) {
	seed, err := services.GenerateSeed()
	if err != nil {
		t.Fatalf("Failed to generate seed: %v", err)
	}
	roundID := "1700000000123"

	hash := services.ComputeHash(seed, roundID)
	crashPoint := services.ComputeCrashPoint(hash)

	verifiedPoint, verifiedHash := services.VerifyRound(seed, roundID)

	if verifiedHash != hash {
		t.Errorf("Verification hash mismatch: expected %s, got %s", hash, verifiedHash)
	}

	if verifiedPoint != crashPoint {
		t.Errorf("Verification crash point mismatch: expected %.2f, got %.2f", crashPoint, verifiedPoint)
	}
}
