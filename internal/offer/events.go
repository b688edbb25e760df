package offer

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Redis channels. The event type doubles as the channel name.
const (
	EventOfferEvaluated     = "EVENT_OFFER_EVALUATED"
	EventOfferStatusChanged = "EVENT_OFFER_STATUS_CHANGED"
)

// Publisher fans out offer events. Publishing is best-effort; the service logs
// failures and carries on.
type Publisher interface {
	Publish(ctx context.Context, eventType string, fields map[string]string) error
}

// RedisPublisher publishes events as flat JSON objects with a "type" key.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventType string, fields map[string]string) error {
	return p.rdb.Publish(ctx, eventType, encodeEvent(eventType, fields)).Err()
}

func encodeEvent(eventType string, fields map[string]string) []byte {
	msg := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = eventType
	event, _ := json.Marshal(msg)
	return event
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, map[string]string) error { return nil }
