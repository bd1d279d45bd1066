package mq

import (
	"context"
	"encoding/json"

	"agriconnect/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const OrderEventsChannel = "order-events"

// Emitter publishes order lifecycle events. Delivery is best effort.
type Emitter interface {
	Emit(ctx context.Context, event models.OrderEvent)
}

// RedisEmitter publishes events on a Redis pub/sub channel.
type RedisEmitter struct {
	client  redis.Cmdable
	channel string
}

func NewRedisEmitter(client redis.Cmdable) *RedisEmitter {
	return &RedisEmitter{client: client, channel: OrderEventsChannel}
}

func (e *RedisEmitter) Emit(ctx context.Context, event models.OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("order_id", event.OrderID).Msg("marshal order event")
		return
	}

	if err := e.client.Publish(ctx, e.channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("order_id", event.OrderID).Msg("publish order event")
		return
	}
	log.Debug().Str("type", event.Type).Str("order_id", event.OrderID).Msg("order event published")
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, models.OrderEvent) {}
