package config

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedisServer connects to REDIS_ADDRESS. It returns nil when redis is not
// configured or unreachable; callers fall back to in-process locking.
func InitRedisServer(ctx context.Context) *redis.Client {
	addr := GetEnv("REDIS_ADDRESS")
	if addr == "" {
		Logger.Warn("REDIS_ADDRESS not set, invoice locks will be process-local")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       GetEnvInt("REDIS_DB", 0),
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		Logger.Error("Redis ping failed, invoice locks will be process-local",
			zap.String("address", addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}

	Logger.Info("Connected to redis", zap.String("address", addr))
	return client
}
