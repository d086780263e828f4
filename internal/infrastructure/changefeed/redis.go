package changefeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// NewRedisClient создает клиент Redis по URL и проверяет соединение
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisSource получает уведомления, разосланные демоном через Redis Pub/Sub
type RedisSource struct {
	client  *redis.Client
	channel string
}

func NewRedisSource(client *redis.Client, channel string) *RedisSource {
	return &RedisSource{client: client, channel: channel}
}

func (r *RedisSource) Listen(ctx context.Context, handle func([]byte) error) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			if err := handle([]byte(msg.Payload)); err != nil {
				return err
			}
		}
	}
}

// RedisPublisher рассылает уведомления подписчикам Redis
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (r *RedisPublisher) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}
