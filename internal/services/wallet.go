package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto-crash-backend/internal/models"
)

// RedisWallet is the WalletGateway backed by redis. Each player document is a
// JSON blob; debits and credits run as Lua scripts so mutations for one
// player are atomic and cannot lose updates when a debit and a later credit
// interleave.
type RedisWallet struct {
	client *redis.Client
}

func NewRedisWallet(client *redis.Client) *RedisWallet {
	return &RedisWallet{client: client}
}

var debitScript = redis.NewScript(`
	local key = KEYS[1]
	local currency = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("player not found")
	end

	local player = cjson.decode(data)

	if not player.wallets[currency] or player.wallets[currency] < amount then
		return redis.error_reply("insufficient balance")
	end

	player.wallets[currency] = player.wallets[currency] - amount

	redis.call("SET", key, cjson.encode(player))

	return "OK"
`)

func (w *RedisWallet) Debit(ctx context.Context, playerID string, currency models.Currency, amount float64) error {
	key := fmt.Sprintf(KeyPlayer, playerID)

	err := debitScript.Run(ctx, w.client, []string{key}, string(currency), amount).Err()
	return mapWalletErr(err)
}

var creditScript = redis.NewScript(`
	local key = KEYS[1]
	local currency = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("player not found")
	end

	local player = cjson.decode(data)

	player.wallets[currency] = (player.wallets[currency] or 0) + amount

	redis.call("SET", key, cjson.encode(player))

	return "OK"
`)

func (w *RedisWallet) Credit(ctx context.Context, playerID string, currency models.Currency, amount float64) error {
	key := fmt.Sprintf(KeyPlayer, playerID)

	err := creditScript.Run(ctx, w.client, []string{key}, string(currency), amount).Err()
	return mapWalletErr(err)
}

func (w *RedisWallet) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	key := fmt.Sprintf(KeyPlayer, playerID)

	data, err := w.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %v", err)
	}

	var player models.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %v", err)
	}

	return &player, nil
}

func (w *RedisWallet) SavePlayer(ctx context.Context, player *models.Player) error {
	key := fmt.Sprintf(KeyPlayer, player.ID)

	player.UpdatedAt = time.Now()

	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %v", err)
	}

	return w.client.Set(ctx, key, data, 0).Err()
}

func (w *RedisWallet) DeletePlayer(ctx context.Context, playerID string) error {
	key := fmt.Sprintf(KeyPlayer, playerID)
	return w.client.Del(ctx, key).Err()
}

// mapWalletErr translates script error replies into the service taxonomy.
func mapWalletErr(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "player not found"):
		return ErrPlayerNotFound
	case strings.Contains(msg, "insufficient balance"):
		return ErrInsufficientBalance
	}

	return fmt.Errorf("wallet operation failed: %v", err)
}
