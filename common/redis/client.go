package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/umar1110/Donation-Plantform-Server/common/config"
)

// Client alias so callers need not import go-redis directly
type Client = redis.Client

// NewRedisClient creates a client; it does not dial until first use
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping checks connectivity
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the client
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
