package taskstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"taskboard/internal/tasks"
)

// DefaultRedisKey ключ, под которым лежит список задач.
const DefaultRedisKey = "taskboard:tasks"

// RedisStore хранит список задач одним JSON-значением в Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore создаёт хранилище поверх готового клиента Redis.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if client == nil {
		panic("taskstore.NewRedisStore: redis client is nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// LoadTasks читает список. Отсутствующий ключ означает пустой список.
func (s *RedisStore) LoadTasks(ctx context.Context) ([]tasks.Task, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []tasks.Task{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTasks(data)
}

// SaveTasks перезаписывает список целиком.
func (s *RedisStore) SaveTasks(ctx context.Context, list []tasks.Task) error {
	data, err := encodeTasks(list)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
