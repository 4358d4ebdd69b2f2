package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/urn"
)

const duplicateSum = "SUM"

// RedisTimeSeries stores one RedisTimeSeries key per link.
type RedisTimeSeries struct {
	client *redis.Client
}

// NewRedisTimeSeries creates a RedisTimeSeries-backed tracker.
func NewRedisTimeSeries(client *redis.Client) *RedisTimeSeries {
	return &RedisTimeSeries{
		client: client,
	}
}

func trackerKey(code shortener.Code) string {
	return urn.Tracker(string(code)).String()
}

func (r *RedisTimeSeries) Create(ctx context.Context, code shortener.Code, ttl time.Duration) error {
	key := trackerKey(code)

	err := r.client.TSCreateWithArgs(ctx, key, &redis.TSOptions{DuplicatePolicy: duplicateSum}).Err()
	if err != nil && !strings.Contains(err.Error(), "key already exists") {
		return fmt.Errorf("redis: create series: %w", err)
	}

	if ttl > 0 {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire series: %w", err)
		}
	}

	return nil
}

func (r *RedisTimeSeries) Track(ctx context.Context, code shortener.Code, at time.Time) error {
	err := r.client.TSAddWithArgs(ctx, trackerKey(code), at.UnixMilli(), 1,
		&redis.TSOptions{DuplicatePolicy: duplicateSum},
	).Err()
	if err != nil {
		return fmt.Errorf("redis: track: %w", err)
	}

	return nil
}

// Sum aggregates [start, end] into a single bucket on the server.
func (r *RedisTimeSeries) Sum(ctx context.Context, code shortener.Code, start, end time.Time) (int64, error) {
	from, to := start.UnixMilli(), end.UnixMilli()

	points, err := r.client.TSRangeWithArgs(ctx, trackerKey(code), int(from), int(to), &redis.TSRangeOptions{
		Aggregator:     redis.Sum,
		BucketDuration: int(to-from) + 1,
	}).Result()
	if err != nil {
		return 0, seriesError(err)
	}

	var total int64
	for _, p := range points {
		total += int64(p.Value)
	}

	return total, nil
}

func (r *RedisTimeSeries) Query(ctx context.Context, code shortener.Code, start, end time.Time) ([]shortener.Sample, error) {
	points, err := r.client.TSRange(ctx, trackerKey(code), int(start.UnixMilli()), int(end.UnixMilli())).Result()
	if err != nil {
		return nil, seriesError(err)
	}

	samples := make([]shortener.Sample, 0, len(points))
	for _, p := range points {
		samples = append(samples, shortener.Sample{
			Timestamp: time.UnixMilli(p.Timestamp).UTC(),
			Count:     int64(p.Value),
		})
	}

	return samples, nil
}

func (r *RedisTimeSeries) Delete(ctx context.Context, code shortener.Code) error {
	if err := r.client.Del(ctx, trackerKey(code)).Err(); err != nil {
		return fmt.Errorf("redis: delete series: %w", err)
	}

	return nil
}

// Shutdown is a no-op for RedisTimeSeries (client managed externally).
func (r *RedisTimeSeries) Shutdown() error {
	return nil
}

func seriesError(err error) error {
	if strings.Contains(err.Error(), "key does not exist") {
		return shortener.ErrTimeseriesNotFound
	}

	return fmt.Errorf("redis: range: %w", err)
}

// Compile-time check.
var _ shortener.Tracker = (*RedisTimeSeries)(nil)
