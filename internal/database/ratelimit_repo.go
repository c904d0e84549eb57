package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/khdigital94/hdforms/pkg/models"
)

// FindRecentRateLimit returns the newest record of an IP whose last attempt is after since
func (db *DB) FindRecentRateLimit(ctx context.Context, ip string, since time.Time) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	query := fmt.Sprintf(`
		SELECT * FROM %s
		WHERE ip_address = ? AND last_attempt > ?
		ORDER BY last_attempt DESC, id DESC
		LIMIT 1
	`, db.tables.RateLimit)
	err := db.GetContext(ctx, &rec, query, ip, since.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit record: %w", err)
	}
	return &rec, nil
}

// CreateRateLimit inserts a new rate limit record
func (db *DB) CreateRateLimit(ctx context.Context, rec *models.RateLimitRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (ip_address, submission_count, first_attempt, last_attempt)
		VALUES (?, ?, ?, ?)
	`, db.tables.RateLimit)
	result, err := db.ExecContext(ctx, query,
		rec.IPAddress,
		rec.SubmissionCount,
		rec.FirstAttempt.UTC(),
		rec.LastAttempt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// IncrementRateLimit bumps the attempt counter of a record in a single statement
func (db *DB) IncrementRateLimit(ctx context.Context, id int64, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET submission_count = submission_count + 1, last_attempt = ?
		WHERE id = ?
	`, db.tables.RateLimit)
	result, err := db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}
	return expectAffected(result)
}

// DeleteRateLimits removes every record of an IP
func (db *DB) DeleteRateLimits(ctx context.Context, ip string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE ip_address = ?`, db.tables.RateLimit)
	if _, err := db.ExecContext(ctx, query, ip); err != nil {
		return fmt.Errorf("failed to delete rate limit records: %w", err)
	}
	return nil
}

// DeleteRateLimitsBefore removes records whose last attempt is older than cutoff
func (db *DB) DeleteRateLimitsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE last_attempt < ?`, db.tables.RateLimit)
	result, err := db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate limit records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// ListRateLimits returns all records of an IP, oldest first
func (db *DB) ListRateLimits(ctx context.Context, ip string) ([]*models.RateLimitRecord, error) {
	var recs []*models.RateLimitRecord
	query := fmt.Sprintf(`SELECT * FROM %s WHERE ip_address = ? ORDER BY id`, db.tables.RateLimit)
	if err := db.SelectContext(ctx, &recs, query, ip); err != nil {
		return nil, fmt.Errorf("failed to list rate limit records: %w", err)
	}
	return recs, nil
}
