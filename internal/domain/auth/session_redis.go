package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "ems:session:"

// RedisSessions keeps sessions as expiring redis keys.
type RedisSessions struct {
	Client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{Client: client}
}

func (r *RedisSessions) Create(ctx context.Context, employeeID, tokenHash string, expires time.Time) error {
	ttl := time.Until(expires)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	return r.Client.Set(ctx, redisSessionPrefix+tokenHash, employeeID, ttl).Err()
}

func (r *RedisSessions) Valid(ctx context.Context, tokenHash string) (bool, error) {
	_, err := r.Client.Get(ctx, redisSessionPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisSessions) Revoke(ctx context.Context, tokenHash string) error {
	return r.Client.Del(ctx, redisSessionPrefix+tokenHash).Err()
}
