package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect configures and pings a Redis client using the supplied URL. An
// empty URL means caching is disabled and yields a nil client without error.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}
