package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	quantityKeyPrefix = "stock:"
	alertKeyPrefix    = "alert:"
	alertThrottleTTL  = 1 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	key := fmt.Sprintf("%s%d", quantityKeyPrefix, itemID)
	return r.client.Set(ctx, key, quantity, 0).Err()
}

func (r *RedisAdapter) GetQuantity(ctx context.Context, itemID int64) (int, bool, error) {
	key := fmt.Sprintf("%s%d", quantityKeyPrefix, itemID)
	quantity, err := r.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return quantity, true, nil
}

// ThrottleAlert returns true at most once per item per throttle window.
func (r *RedisAdapter) ThrottleAlert(ctx context.Context, itemID int64) (bool, error) {
	key := fmt.Sprintf("%s%d", alertKeyPrefix, itemID)
	ok, err := r.client.SetNX(ctx, key, 1, alertThrottleTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
