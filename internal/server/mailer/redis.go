package mailer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisPusher is the part of *redis.Client the sender needs.
type redisPusher interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// redisClient is what New needs to own a connection.
type redisClient interface {
	redisPusher
	Close() error
}

// newRedisClient is a seam for tests.
var newRedisClient = func(addr string) redisClient {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// RedisSender appends mails to a Redis list.
type RedisSender struct {
	rdb redisPusher
	key string
}

func NewRedisSender(rdb redisPusher, key string) *RedisSender {
	return &RedisSender{rdb: rdb, key: key}
}

func (s *RedisSender) SendMail(ctx context.Context, recipient string, template string) (bool, error) {
	payload, err := encode(recipient, template)
	if err != nil {
		return false, err
	}
	if err := s.rdb.RPush(ctx, s.key, payload).Err(); err != nil {
		return false, fmt.Errorf("redis rpush %s: %w", s.key, err)
	}
	return true, nil
}
