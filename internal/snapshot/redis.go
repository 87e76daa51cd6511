package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// Redis хранит снимок одним значением под ключом Namespace.
type Redis struct {
	client *redis.Client
}

// NewRedis создаёт драйвер по redis-URI и проверяет соединение пингом.
func NewRedis(ctx context.Context, uri string) (*Redis, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

// Load читает и декодирует снимок из ключа.
func (r *Redis) Load(ctx context.Context) (model.State, error) {
	data, err := r.client.Get(ctx, Namespace).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.State{}, ErrNoSnapshot
		}
		return model.State{}, fmt.Errorf("get snapshot: %w", err)
	}

	return decode(data)
}

// Save сериализует состояние и записывает его в ключ без срока жизни.
func (r *Redis) Save(ctx context.Context, st model.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, Namespace, data, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis.
func (r *Redis) Close() error {
	return r.client.Close()
}
