package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/riot"
)

const matchKeyPrefix = "tft:match:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings. The caller owns Close.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	log.WithField("addr", opts.Addr).Info("connected to redis")
	return rdb, nil
}

// RedisMatchCache shares match details between bot instances.
type RedisMatchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMatchCache(rdb *redis.Client, ttl time.Duration) *RedisMatchCache {
	return &RedisMatchCache{rdb: rdb, ttl: ttl}
}

func (c *RedisMatchCache) Get(ctx context.Context, matchID string) (*riot.Match, bool) {
	raw, err := c.rdb.Get(ctx, matchKeyPrefix+matchID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("match_id", matchID).Warn("redis match lookup failed")
		}
		return nil, false
	}
	var m riot.Match
	if err := json.Unmarshal(raw, &m); err != nil {
		log.WithError(err).WithField("match_id", matchID).Warn("invalid cached match, ignoring")
		return nil, false
	}
	return &m, true
}

func (c *RedisMatchCache) Put(ctx context.Context, matchID string, match *riot.Match) {
	raw, err := json.Marshal(match)
	if err != nil {
		log.WithError(err).WithField("match_id", matchID).Warn("failed to marshal match for cache")
		return
	}
	if err := c.rdb.Set(ctx, matchKeyPrefix+matchID, raw, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("match_id", matchID).Warn("failed to store match in redis")
	}
}
