package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	config "github.com/sooryaah/imat-lms/configs"
)

var RDB *redis.Client

// ConnectRedis opens the shared Redis client used by the realtime broker
// and the task queue.
func ConnectRedis() {
	url := config.ConfigDefault("REDIS_URL", "redis://localhost:6379/0")
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("🔥 Invalid REDIS_URL: %v", err)
	}

	RDB = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}

	log.Println("✅ Redis connected successfully")
}
