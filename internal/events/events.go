package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"lunch-system/internal/domain"
)

const (
	CHANNEL_PREFIX = "lunch:events:"
	CHANNEL_ALL    = "lunch:events:all"
)

type OrderEvent struct {
	EventType string             `json:"event_type"`
	OrderID   string             `json:"order_id"`
	Matricola string             `json:"matricola,omitempty"`
	Items     []domain.OrderItem `json:"items,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type RedisPublisher struct {
	redis redis.UniversalClient
}

func NewRedisPublisher(redisClient redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

func (p *RedisPublisher) Publish(ctx context.Context, event OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := CHANNEL_PREFIX + event.EventType
	if err := p.redis.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.redis.Publish(ctx, CHANNEL_ALL, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}

// Nop drops events; used with the file and postgres backends when no redis
// is configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }
