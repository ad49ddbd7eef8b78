package redis

import (
	"context"
	"team-workspace-server/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Ctx = context.Background()
var RedisClient *redis.Client

func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		log.Warn().Msg("Redis not available. Running without Redis.")
		RedisClient = nil
		return
	}

	log.Info().Msg("Redis connected successfully.")
}
