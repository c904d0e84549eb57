package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/pkg/models"
)

const (
	// Window is the length of the rolling submission window
	Window = time.Hour
	// Threshold is the number of submissions allowed per IP and window
	Threshold = 3
)

// Store persists rate limit records
type Store interface {
	FindRecentRateLimit(ctx context.Context, ip string, since time.Time) (*models.RateLimitRecord, error)
	CreateRateLimit(ctx context.Context, rec *models.RateLimitRecord) error
	IncrementRateLimit(ctx context.Context, id int64, at time.Time) error
	DeleteRateLimits(ctx context.Context, ip string) error
	DeleteRateLimitsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Limiter enforces the per-IP submission quota
type Limiter struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a new limiter backed by store
func NewLimiter(store Store, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		logger: logger.With("component", "ratelimit"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) clock() time.Time {
	return l.now().UTC().Truncate(time.Second)
}

// CheckAndRecord reports whether ip may submit and records the attempt when it may
func (l *Limiter) CheckAndRecord(ctx context.Context, ip string) (bool, error) {
	now := l.clock()

	rec, err := l.store.FindRecentRateLimit(ctx, ip, now.Add(-Window))
	if errors.Is(err, database.ErrNotFound) {
		if err := l.store.DeleteRateLimits(ctx, ip); err != nil {
			return false, err
		}
		err := l.store.CreateRateLimit(ctx, &models.RateLimitRecord{
			IPAddress:       ip,
			SubmissionCount: 1,
			FirstAttempt:    now,
			LastAttempt:     now,
		})
		if err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if rec.SubmissionCount >= Threshold {
		l.logger.Info("Submission rate limited", "ip", ip, "count", rec.SubmissionCount)
		return false, nil
	}

	if err := l.store.IncrementRateLimit(ctx, rec.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep deletes records that fell out of the window
func (l *Limiter) Sweep(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteRateLimitsBefore(ctx, l.clock().Add(-Window))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep rate limits: %w", err)
	}
	return n, nil
}

// StartJanitor runs Sweep every interval until ctx is done
func (l *Limiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := l.Sweep(ctx)
				if err != nil {
					l.logger.Error("Rate limit sweep failed", "error", err)
					continue
				}
				if n > 0 {
					l.logger.Debug("Rate limit records purged", "count", n)
				}
			}
		}
	}()
}
