package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleet-bridge/config"
	"fleet-bridge/models"

	"github.com/go-redis/redis/v8"
)

const liveStateTTL = 24 * time.Hour

// RedisClient caches the live state of robots (last reported status and
// location) so the heartbeat hot path does not need the database.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: rdb,
		ctx:    ctx,
	}, nil
}

func (r *RedisClient) SaveRobotStatus(robotID string, status models.RobotStatus, lastSeen time.Time) error {
	key := fmt.Sprintf("robot:status:%s", robotID)
	value, err := json.Marshal(map[string]interface{}{
		"status":    status,
		"last_seen": lastSeen.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal robot status: %w", err)
	}
	if err := r.client.Set(r.ctx, key, value, liveStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save robot status to Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) GetRobotStatus(robotID string) (models.RobotStatus, time.Time, error) {
	key := fmt.Sprintf("robot:status:%s", robotID)
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", time.Time{}, fmt.Errorf("status not cached for robot %s", robotID)
		}
		return "", time.Time{}, fmt.Errorf("failed to get robot status from Redis: %w", err)
	}

	var cached struct {
		Status   models.RobotStatus `json:"status"`
		LastSeen time.Time          `json:"last_seen"`
	}
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to unmarshal robot status: %w", err)
	}
	return cached.Status, cached.LastSeen, nil
}

func (r *RedisClient) SaveLocation(record *models.LocationRecord) error {
	key := fmt.Sprintf("robot:location:%s", record.RobotID)
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	if err := r.client.Set(r.ctx, key, value, liveStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save location to Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) GetLocation(robotID string) (*models.LocationRecord, error) {
	key := fmt.Sprintf("robot:location:%s", robotID)
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("location not cached for robot %s", robotID)
		}
		return nil, fmt.Errorf("failed to get location from Redis: %w", err)
	}

	var record models.LocationRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return &record, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
