package mq

import (
	"context"
	"encoding/json"

	"agriconnect/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StartOrderWorker consumes order events until ctx is done and hands each
// one to handle.
func StartOrderWorker(ctx context.Context, client *redis.Client, handle func(models.OrderEvent)) {
	sub := client.Subscribe(ctx, OrderEventsChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Info().Str("channel", OrderEventsChannel).Msg("order worker listening")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("order worker stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			event, err := DecodeEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Msg("discarding malformed order event")
				continue
			}
			handle(event)
		}
	}
}

func DecodeEvent(payload string) (models.OrderEvent, error) {
	var event models.OrderEvent
	err := json.Unmarshal([]byte(payload), &event)
	return event, err
}
