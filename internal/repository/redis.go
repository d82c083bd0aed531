package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/geodiary/diary-backend/internal/config"
	"github.com/geodiary/diary-backend/internal/models"
)

// SubmittedDiaryPrefix ключ кэша замороженных дневников:
// diary:submitted:{deviceid}:{date}
const SubmittedDiaryPrefix = "diary:submitted:"

// RedisCache кэш замороженных дневников. Снимает с MySQL повторные
// чтения уже отправленных дней: их содержимое больше не меняется.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Entry
	config *config.RedisConfig
}

// NewRedisCache создает новый Redis кэш дневников
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.Password = cfg.Password
	opt.DB = cfg.DB
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.ConnMaxIdleTime = 30 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	return &RedisCache{
		client: redis.NewClient(opt),
		logger: logrus.WithField("component", "diary_cache"),
		config: cfg,
	}, nil
}

// Ping проверяет соединение с Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSubmitted возвращает замороженный дневник из кэша; промах — (nil, nil)
func (c *RedisCache) GetSubmitted(ctx context.Context, deviceID string, date time.Time) (*models.DiaryResponse, error) {
	key := c.key(deviceID, date)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached diary: %w", err)
	}

	var response models.DiaryResponse
	if err := json.Unmarshal(data, &response); err != nil {
		// Битая запись кэша не должна ломать запрос
		c.logger.WithError(err).WithField("key", key).Warn("Failed to unmarshal cached diary, dropping key")
		c.client.Del(ctx, key)
		return nil, nil
	}

	return &response, nil
}

// SetSubmitted кэширует замороженный дневник с TTL из конфигурации
func (c *RedisCache) SetSubmitted(ctx context.Context, deviceID string, date time.Time, response *models.DiaryResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal diary for cache: %w", err)
	}

	if err := c.client.Set(ctx, c.key(deviceID, date), data, c.config.DiaryTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache diary: %w", err)
	}
	return nil
}

func (c *RedisCache) key(deviceID string, date time.Time) string {
	return SubmittedDiaryPrefix + deviceID + ":" + date.Format("2006-01-02")
}
