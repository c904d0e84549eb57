package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khdigital94/hdforms/pkg/models"
)

// MaxListLimit caps the number of submissions returned by one listing
const MaxListLimit = 100

// SubmissionFilter narrows a submission listing
type SubmissionFilter struct {
	Search string // matched against form_name, form_data and user_ip
	Limit  int
}

// CreateSubmission stores a new submission
func (db *DB) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (form_id, form_name, form_data, files, user_ip, user_agent, referer, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, db.tables.Submissions)

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = Now()
	}
	if !sub.Status.Valid() {
		sub.Status = models.StatusUnread
	}

	result, err := db.ExecContext(ctx, query,
		sub.FormID,
		sub.FormName,
		sub.FormData,
		sub.Files,
		sub.UserIP,
		sub.UserAgent,
		sub.Referer,
		sub.CreatedAt,
		sub.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sub.ID = id
	return nil
}

// GetSubmission returns a submission by ID
func (db *DB) GetSubmission(ctx context.Context, id int64) (*models.Submission, error) {
	var sub models.Submission
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, db.tables.Submissions)
	err := db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// ListSubmissions returns the newest submissions matching the filter
func (db *DB) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*models.Submission, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	var (
		where string
		args  []any
	)
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		where = `WHERE form_name LIKE ? ESCAPE '\' OR form_data LIKE ? ESCAPE '\' OR user_ip LIKE ? ESCAPE '\'`
		args = append(args, like, like, like)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT * FROM %s %s ORDER BY created_at DESC, id DESC LIMIT ?`, db.tables.Submissions, where)

	var subs []*models.Submission
	if err := db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// CountSubmissions returns the total number of submissions
func (db *DB) CountSubmissions(ctx context.Context) (int, error) {
	return db.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, db.tables.Submissions))
}

// CountUnreadSubmissions returns the number of unread submissions
func (db *DB) CountUnreadSubmissions(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = ?`, db.tables.Submissions)
	return db.count(ctx, query, models.StatusUnread)
}

// CountSubmissionsBetween returns the number of submissions created in [from, to)
func (db *DB) CountSubmissionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE created_at >= ? AND created_at < ?`, db.tables.Submissions)
	return db.count(ctx, query, from.UTC(), to.UTC())
}

// MarkSubmissionRead sets the status of a submission to read
func (db *DB) MarkSubmissionRead(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET status = ? WHERE id = ?`, db.tables.Submissions)
	result, err := db.ExecContext(ctx, query, models.StatusRead, id)
	if err != nil {
		return fmt.Errorf("failed to mark submission as read: %w", err)
	}
	return expectAffected(result)
}

// DeleteSubmission deletes a submission row
func (db *DB) DeleteSubmission(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, db.tables.Submissions)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return expectAffected(result)
}

func (db *DB) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
