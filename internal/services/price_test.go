package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"crypto-crash-backend/internal/config"
	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

func TestPriceOracleReadsCache(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	client, err := services.NewRedisClient(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	prices := map[models.Currency]float64{
		models.CurrencyBTC: 50000,
		models.CurrencyETH: 3000,
	}
	data, _ := json.Marshal(prices)

	if err := client.Set(ctx, services.KeyCryptoPrices, data, services.TTLCryptoPrices).Err(); err != nil {
		t.Fatalf("Failed to seed price cache: %v", err)
	}
	defer client.Del(ctx, services.KeyCryptoPrices)

	oracle := services.NewRedisPriceOracle(client)

	price, err := oracle.Price(ctx, models.CurrencyBTC)
	if err != nil {
		t.Fatalf("Failed to get price: %v", err)
	}

	if price != 50000 {
		t.Errorf("Expected BTC price 50000, got %f", price)
	}
}

func TestPriceOracleUnavailable(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	client, err := services.NewRedisClient(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	client.Del(ctx, services.KeyCryptoPrices)

	// No cache document and an empty fallback: the oracle must report a
	// distinct unavailable condition.
	oracle := services.NewRedisPriceOracle(client)

	_, err = oracle.Price(ctx, models.CurrencyBTC)
	if !errors.Is(err, services.ErrPriceUnavailable) {
		t.Errorf("Expected ErrPriceUnavailable, got %v", err)
	}
}

func TestPriceOracleFallback(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	client, err := services.NewRedisClient(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	prices := map[models.Currency]float64{
		models.CurrencyBTC: 48000,
		models.CurrencyETH: 2800,
	}
	data, _ := json.Marshal(prices)

	if err := client.Set(ctx, services.KeyCryptoPrices, data, services.TTLCryptoPrices).Err(); err != nil {
		t.Fatalf("Failed to seed price cache: %v", err)
	}

	oracle := services.NewRedisPriceOracle(client)

	// Prime the in-memory fallback with a successful read.
	if _, err := oracle.Price(ctx, models.CurrencyETH); err != nil {
		t.Fatalf("Failed to get price: %v", err)
	}

	// Drop the cache document: the oracle should serve the fallback.
	client.Del(ctx, services.KeyCryptoPrices)

	price, err := oracle.Price(ctx, models.CurrencyETH)
	if err != nil {
		t.Fatalf("Expected fallback price, got error: %v", err)
	}

	if price != 2800 {
		t.Errorf("Expected fallback ETH price 2800, got %f", price)
	}
}
