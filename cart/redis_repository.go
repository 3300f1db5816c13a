package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"myaje.io/checkout/models"
)

var _ Repository = (*RedisRepository)(nil)

// RedisRepository persists the cart snapshot under a per-owner key, shared
// by every session of the same owner. Writes are last-write-wins.
type RedisRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

func NewRedisRepository(client *redis.Client, ownerKey string, logger *zap.Logger) *RedisRepository {
	return &RedisRepository{
		client: client,
		key:    "myaje:cart:" + ownerKey,
		logger: logger,
	}
}

func (r *RedisRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart from redis: %w", err)
	}
	return decodeItems(data)
}

func (r *RedisRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	if err = r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save cart to redis", zap.String("key", r.key), zap.Error(err))
		return fmt.Errorf("save cart to redis: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete cart from redis: %w", err)
	}
	return nil
}
