package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ordering-svc/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const menuItemTTL = 5 * time.Minute

func InitRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return rdb, nil
}

func GetMenuItem(ctx context.Context, rdb *redis.Client, id string) ([]byte, error) {
	return rdb.Get(ctx, menuItemKey(id)).Bytes()
}

func SetMenuItem(ctx context.Context, rdb *redis.Client, id string, item interface{}) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, menuItemKey(id), data, menuItemTTL).Err()
}

// InvalidateMenuItem drops the cached copy after any catalog write or
// stock mutation so the next read reflects the database.
func InvalidateMenuItem(ctx context.Context, rdb *redis.Client, id string) error {
	return rdb.Del(ctx, menuItemKey(id)).Err()
}

func menuItemKey(id string) string {
	return fmt.Sprintf("menu_item:%s", id)
}
