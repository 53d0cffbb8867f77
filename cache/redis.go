package cache

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "link:"

// Redis is a Cache backed by a shared Redis instance, for deployments running
// more than one process. Lookup failures degrade to a cache miss.
type Redis struct {
	client *goredis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, shortID string) (string, bool) {
	url, err := r.client.Get(ctx, keyPrefix+shortID).Result()
	if err == goredis.Nil {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("short_id", shortID).Msg("redis cache get failed")
		return "", false
	}
	return url, true
}

func (r *Redis) Set(ctx context.Context, shortID, url string) {
	// No TTL: entries live until the link is deleted.
	if err := r.client.Set(ctx, keyPrefix+shortID, url, 0).Err(); err != nil {
		log.Warn().Err(err).Str("short_id", shortID).Msg("redis cache set failed")
	}
}

func (r *Redis) Delete(ctx context.Context, shortID string) {
	if err := r.client.Del(ctx, keyPrefix+shortID).Err(); err != nil {
		log.Warn().Err(err).Str("short_id", shortID).Msg("redis cache delete failed")
	}
}
