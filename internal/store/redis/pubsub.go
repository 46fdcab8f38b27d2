package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Feed publishes board events to Redis for out-of-process observers.
// The server itself never subscribes.
type Feed struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Feed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Feed{client: client}, nil
}

func (f *Feed) Close() error {
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("redis.Feed.Close: %w", err)
	}
	return nil
}

func (f *Feed) Ping(ctx context.Context) error {
	if err := f.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.Feed.Ping: %w", err)
	}
	return nil
}

func (f *Feed) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := f.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.Feed.Publish: %w", err)
	}
	return nil
}

// PublishBoard publishes an encoded frame on the board's channel.
func (f *Feed) PublishBoard(ctx context.Context, boardID uuid.UUID, frame []byte) error {
	return f.Publish(ctx, BoardChannel(boardID), frame)
}

// BoardChannel returns the Redis channel name for a board's event feed.
func BoardChannel(boardID uuid.UUID) string {
	return "board:" + boardID.String()
}
