package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamPublisher publishes detected surebets to a Redis stream so alerting
// and downstream consumers can react without polling the API.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher creates a new redis stream publisher
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = "surebets.detected"
	}
	return &StreamPublisher{client: client, stream: stream}
}

// Name identifies the publisher
func (p *StreamPublisher) Name() string {
	return "redis_stream"
}

// Publish appends one entry per surebet to the stream
func (p *StreamPublisher) Publish(ctx context.Context, pass Pass) error {
	for _, surebet := range pass.Surebets {
		payload, err := json.Marshal(surebet)
		if err != nil {
			return fmt.Errorf("failed to marshal surebet %s: %w", surebet.EventID, err)
		}

		_, err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]interface{}{
				"event_id":    surebet.EventID,
				"detected_at": pass.DetectedAt.UnixMilli(),
				"surebet":     string(payload),
			},
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
		}
	}
	return nil
}
