package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Outcome of a public intake request
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeSpam        Outcome = "spam"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeUploaded    Outcome = "uploaded"
)

// StatsRecorder counts intake outcomes. Implementations are best effort.
type StatsRecorder interface {
	Record(ctx context.Context, outcome Outcome) error
}

// NopStats discards everything
type NopStats struct{}

// Record implements StatsRecorder
func (NopStats) Record(context.Context, Outcome) error { return nil }

// RedisStats keeps a cumulative hash plus hourly bucket hashes
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration // bucket keys only, the total never expires
	now    func() time.Time
}

// NewRedisStats creates a Redis backed recorder
func NewRedisStats(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStats {
	return &RedisStats{
		rdb:    rdb,
		prefix: strings.Trim(prefix, ":"),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStats) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStats) bucketKey(at time.Time) string {
	return fmt.Sprintf("%s:hour:%s", s.prefix, at.UTC().Format("2006010215"))
}

// Record implements StatsRecorder
func (s *RedisStats) Record(ctx context.Context, outcome Outcome) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	bucketKey := s.bucketKey(s.now())

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), string(outcome), 1)
	pipe.HIncrBy(ctx, bucketKey, string(outcome), 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record intake stats: %w", err)
	}
	return nil
}

// Snapshot returns the cumulative counters
func (s *RedisStats) Snapshot(ctx context.Context) (map[Outcome]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read intake stats: %w", err)
	}

	out := make(map[Outcome]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[Outcome(field)] = n
	}
	return out, nil
}
