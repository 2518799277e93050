package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

const (
	pendingKeyPrefix = "engine:pending:"
	counterKeyPrefix = "engine:files:"
)

// RedisStore is the shared implementation used when the engine runs as more
// than one worker instance.
type RedisStore struct {
	client        *redis.Client
	pendingTTL    time.Duration
	counterWindow time.Duration
}

func NewRedisStore(addr, password string, db int, pendingTTL, counterWindow time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		client:        client,
		pendingTTL:    pendingTTL,
		counterWindow: counterWindow,
	}
}

func (s *RedisStore) GetPending(ctx context.Context, sessionID string) ([]models.FileItem, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID is empty")
	}

	data, err := s.client.Get(ctx, pendingKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading pending files: %w", err)
	}

	var files []models.FileItem
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("error decoding pending files: %w", err)
	}
	return files, nil
}

func (s *RedisStore) PutPending(ctx context.Context, sessionID string, files []models.FileItem) error {
	if sessionID == "" {
		return errors.New("sessionID is empty")
	}

	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("error encoding pending files: %w", err)
	}
	return s.client.Set(ctx, pendingKeyPrefix+sessionID, data, s.pendingTTL).Err()
}

func (s *RedisStore) DeletePending(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is empty")
	}
	return s.client.Del(ctx, pendingKeyPrefix+sessionID).Err()
}

func (s *RedisStore) FilesSent(ctx context.Context, sessionID string) (int, error) {
	count, err := s.client.Get(ctx, counterKeyPrefix+sessionID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading file counter: %w", err)
	}
	return count, nil
}

// AddFilesSent increments the rolling counter. The window TTL is set only
// when the key is created, so the count naturally expires after the window
// regardless of later increments.
func (s *RedisStore) AddFilesSent(ctx context.Context, sessionID string, n int) error {
	key := counterKeyPrefix + sessionID
	created, err := s.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return fmt.Errorf("error incrementing file counter: %w", err)
	}
	if created == int64(n) {
		if err := s.client.Expire(ctx, key, s.counterWindow).Err(); err != nil {
			return fmt.Errorf("error setting counter expiry: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
