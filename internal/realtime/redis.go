package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis creates a new Redis client
func NewRedis(addr, password string, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Info("redis client created", zap.String("addr", addr))
	return rdb
}

// Publisher is the slice of the redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func NotificationChannel(userID string) string {
	return "notifications:" + userID
}
