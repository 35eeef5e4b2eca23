package notify

import (
	"context"

	"failover_trader/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "trade_events"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink публикует события в pub/sub канал JSON-ом.
type RedisSink struct {
	client  publisher
	channel string
}

func NewRedisSink(client publisher, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, ev models.TradeEvent) error {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", s.channel)
	}
	return nil
}
