package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// DefaultRedisKey is the sorted set holding processed match ids
const DefaultRedisKey = "pubgtracker:processed_matches"

// RedisClient is the subset of *redis.Client the ledger uses
type RedisClient interface {
	ZAddNX(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps processed ids in a sorted set scored by unix processing time
type Redis struct {
	client RedisClient
	key    string
	now    func() time.Time
}

// NewRedis creates a Redis ledger. An empty key selects DefaultRedisKey.
func NewRedis(client RedisClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key, now: time.Now}
}

func (r *Redis) HasProcessed(ctx context.Context, matchID string) (bool, error) {
	err := r.client.ZScore(ctx, r.key, matchID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: zscore %s: %v", ErrUnavailable, matchID, err)
	}
	return true, nil
}

func (r *Redis) MarkProcessed(ctx context.Context, matchID string) error {
	member := redis.Z{Score: float64(r.now().Unix()), Member: matchID}
	if err := r.client.ZAddNX(ctx, r.key, member).Err(); err != nil {
		return fmt.Errorf("%w: zadd %s: %v", ErrUnavailable, matchID, err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange: %v", ErrUnavailable, err)
	}

	records := make([]models.ProcessedMatchRecord, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		records = append(records, models.ProcessedMatchRecord{
			MatchID:     id,
			ProcessedAt: time.Unix(int64(z.Score), 0).UTC(),
		})
	}
	return records, nil
}

func (r *Redis) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	// exclusive upper bound keeps records processed exactly at the cutoff
	upper := "(" + strconv.FormatInt(cutoff.Unix(), 10)
	n, err := r.client.ZRemRangeByScore(ctx, r.key, "-inf", upper).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: zremrangebyscore: %v", ErrUnavailable, err)
	}
	return n, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrUnavailable, err)
	}
	return nil
}
