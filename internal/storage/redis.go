package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fintrack/internal/log"
	"fintrack/internal/state"
)

var _ state.Persister = (*RedisStore)(nil)

const redisKeyPrefix = "fintrack:state:"

// RedisStore keeps each namespace under its own key, for clients sharing state
// across machines
type RedisStore struct {
	client *redis.Client
	logger *log.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *log.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return NewRedisStoreFromClient(client, logger), nil
}

func NewRedisStoreFromClient(client *redis.Client, logger *log.Logger) *RedisStore {
	if logger == nil {
		logger = log.Discard()
	}
	return &RedisStore{client: client, logger: logger.WithComponent(log.ComponentStorage)}
}

func (s *RedisStore) Load(ctx context.Context, namespace string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+namespace).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state %s: %w", namespace, err)
	}
	return payload, true, nil
}

func (s *RedisStore) Save(ctx context.Context, namespace string, payload []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+namespace, payload, 0).Err(); err != nil {
		return fmt.Errorf("set state %s: %w", namespace, err)
	}
	s.logger.DebugContext(ctx, "State saved", log.FieldNamespace, namespace, "bytes", len(payload))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+namespace).Err(); err != nil {
		return fmt.Errorf("delete state %s: %w", namespace, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
