package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/models"
)

// SummaryCache caches read-model summaries in front of the document store.
// A disabled or unreachable cache degrades to pass-through.
type SummaryCache interface {
	GetAppointmentSummary(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error)
	SetAppointmentSummary(ctx context.Context, summary *models.AppointmentSummary) error
	DeleteAppointmentSummary(ctx context.Context, appointmentID string) error
}

// RedisCache implements SummaryCache using Redis.
type RedisCache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisCache creates a new Redis cache client.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client:  client,
		enabled: true,
		ttl:     5 * time.Minute,
	}, nil
}

func appointmentSummaryKey(id string) string {
	return fmt.Sprintf("appointment_summary:%s", id)
}

// GetAppointmentSummary retrieves a cached summary. A miss returns
// (nil, redis.Nil).
func (c *RedisCache) GetAppointmentSummary(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, appointmentSummaryKey(appointmentID)).Bytes()
	if err != nil {
		return nil, err
	}

	var summary models.AppointmentSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// SetAppointmentSummary caches a summary with the default TTL.
func (c *RedisCache) SetAppointmentSummary(ctx context.Context, summary *models.AppointmentSummary) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, appointmentSummaryKey(summary.AppointmentID), data, c.ttl).Err()
}

// DeleteAppointmentSummary evicts a cached summary.
func (c *RedisCache) DeleteAppointmentSummary(ctx context.Context, appointmentID string) error {
	if !c.enabled {
		return nil
	}
	return c.client.Del(ctx, appointmentSummaryKey(appointmentID)).Err()
}

// IsMiss reports whether an error from the cache is a plain miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}
