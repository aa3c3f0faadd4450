package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedis connects to Redis. It accepts a redis:// URL or a bare host:port.
func NewRedis(redisURL string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fallback for simple address format
		u, parseErr := url.Parse("redis://" + redisURL)
		if parseErr != nil {
			return nil, err
		}

		db := 0
		if u.Path != "" && u.Path != "/" {
			if n, dbErr := strconv.Atoi(u.Path[1:]); dbErr == nil {
				db = n
			}
		}
		opt = &redis.Options{Addr: u.Host, DB: db}
		if u.User != nil {
			if password, ok := u.User.Password(); ok {
				opt.Password = password
			}
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("component", "redis").Str("addr", opt.Addr).Int("db", opt.DB).Msg("Redis connection established")
	return client, nil
}
