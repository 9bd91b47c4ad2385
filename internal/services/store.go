package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"crypto-crash-backend/internal/models"
)

// RedisRoundStore archives completed rounds and logs transactions. Rounds go
// into a ZSET-indexed history scored by end time; transactions are indexed
// per player the same way.
type RedisRoundStore struct {
	client *redis.Client
}

func NewRedisRoundStore(client *redis.Client) *RedisRoundStore {
	return &RedisRoundStore{client: client}
}

func (s *RedisRoundStore) SaveRound(ctx context.Context, record *models.RoundRecord) error {
	key := fmt.Sprintf(KeyRound, record.RoundID)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal round record: %v", err)
	}

	if err := s.client.Set(ctx, key, data, TTLRound).Err(); err != nil {
		return fmt.Errorf("failed to save round record: %v", err)
	}

	score := float64(record.EndTime.Unix())
	if err := s.client.ZAdd(ctx, KeyRoundHistory, redis.Z{
		Score:  score,
		Member: record.RoundID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index round record: %v", err)
	}

	// Keep only the last 1000 rounds in the index.
	s.client.ZRemRangeByRank(ctx, KeyRoundHistory, 0, -1001)

	return nil
}

func (s *RedisRoundStore) RecentRounds(ctx context.Context, limit int64) ([]*models.RoundRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	roundIDs, err := s.client.ZRevRange(ctx, KeyRoundHistory, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %v", err)
	}

	var records []*models.RoundRecord
	for _, roundID := range roundIDs {
		key := fmt.Sprintf(KeyRound, roundID)

		data, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var record models.RoundRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}

		records = append(records, &record)
	}

	return records, nil
}

func (s *RedisRoundStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	playerTxKey := fmt.Sprintf(KeyPlayerTransactions, tx.PlayerID)
	score := float64(tx.CreatedAt.Unix())

	if err := s.client.ZAdd(ctx, playerTxKey, redis.Z{
		Score:  score,
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index transaction: %v", err)
	}

	// Keep only the last 100 transactions per player.
	s.client.ZRemRangeByRank(ctx, playerTxKey, 0, -101)

	return nil
}

func (s *RedisRoundStore) PlayerTransactions(ctx context.Context, playerID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	playerTxKey := fmt.Sprintf(KeyPlayerTransactions, playerID)

	txIDs, err := s.client.ZRevRange(ctx, playerTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		txKey := fmt.Sprintf(KeyTransaction, txID)

		data, err := s.client.Get(ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisRoundStore) DeleteRound(ctx context.Context, roundID string) error {
	key := fmt.Sprintf(KeyRound, roundID)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return err
	}

	return s.client.ZRem(ctx, KeyRoundHistory, roundID).Err()
}
