package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/record"
	"github.com/issuelens/backend/pkg/logger"
)

// Client caches reference-record lookups and search responses. The
// index is read-mostly, so short TTLs are enough to keep repeated
// interactions on the same record cheap.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetRecord(ctx context.Context, rec *record.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = c.client.Set(ctx, recordKey(rec.ID), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache record: %w", err)
	}

	logger.Debug("Record cached", zap.String("record_id", rec.ID))
	return nil
}

func (c *Client) GetRecord(ctx context.Context, id string) (*record.Record, bool, error) {
	data, err := c.client.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached record: %w", err)
	}

	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached record: %w", err)
	}

	logger.Debug("Record cache hit", zap.String("record_id", id))
	return &rec, true, nil
}

func (c *Client) SetSearch(ctx context.Context, queryHash string, hits []record.Hit) error {
	data, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("failed to marshal hits: %w", err)
	}

	err = c.client.Set(ctx, searchKey(queryHash), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache search response: %w", err)
	}

	logger.Debug("Search response cached", zap.String("query_hash", queryHash))
	return nil
}

func (c *Client) GetSearch(ctx context.Context, queryHash string) ([]record.Hit, bool, error) {
	data, err := c.client.Get(ctx, searchKey(queryHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached search response: %w", err)
	}

	var hits []record.Hit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached hits: %w", err)
	}

	logger.Debug("Search cache hit", zap.String("query_hash", queryHash))
	return hits, true, nil
}

func recordKey(id string) string {
	return fmt.Sprintf("record:%s", id)
}

func searchKey(hash string) string {
	return fmt.Sprintf("search:%s", hash)
}
