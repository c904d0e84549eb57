package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khdigital94/hdforms/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), "wp_")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	assert.Equal(t, "wp_custom_form_submissions", db.Tables().Submissions)
}

func TestSubmissions_CreateGetList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	sub := &models.Submission{
		FormID:   "7",
		FormName: "Kontakt",
		FormData: `{"name":"Max","email":"max@example.com"}`,
		Files: models.FileList{
			{Filename: "cv-abc.pdf", OriginalName: "cv.pdf", Size: 10, URL: "http://x/cv-abc.pdf"},
		},
		UserIP: "203.0.113.5",
	}
	require.NoError(t, db.CreateSubmission(ctx, sub))
	require.NotZero(t, sub.ID)

	got, err := db.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnread, got.Status)
	assert.Equal(t, sub.FormData, got.FormData)
	assert.Equal(t, []string{"cv-abc.pdf"}, got.Files.Names())
	assert.True(t, got.CreatedAt.Equal(sub.CreatedAt))

	plain := &models.Submission{FormID: "8", FormName: "Newsletter", FormData: `{"note":"50%_off"}`, UserIP: "198.51.100.1"}
	require.NoError(t, db.CreateSubmission(ctx, plain))

	got, err = db.GetSubmission(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Files)

	all, err := db.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := db.ListSubmissions(ctx, SubmissionFilter{Search: "max@"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, sub.ID, found[0].ID)

	found, err = db.ListSubmissions(ctx, SubmissionFilter{Search: "198.51"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, plain.ID, found[0].ID)

	// wildcard characters are matched literally
	found, err = db.ListSubmissions(ctx, SubmissionFilter{Search: "%_"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, plain.ID, found[0].ID)
}

func TestSubmissions_CountsAndStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	yesterday := Now().Add(-24 * time.Hour)
	old := &models.Submission{FormID: "1", FormName: "A", FormData: "{}", CreatedAt: yesterday}
	fresh := &models.Submission{FormID: "1", FormName: "A", FormData: "{}"}
	require.NoError(t, db.CreateSubmission(ctx, old))
	require.NoError(t, db.CreateSubmission(ctx, fresh))

	total, err := db.CountSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	recent, err := db.CountSubmissionsBetween(ctx, Now().Add(-time.Hour), Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, recent)

	require.NoError(t, db.MarkSubmissionRead(ctx, old.ID))
	unread, err := db.CountUnreadSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	assert.ErrorIs(t, db.MarkSubmissionRead(ctx, 999), ErrNotFound)

	require.NoError(t, db.DeleteSubmission(ctx, fresh.ID))
	assert.ErrorIs(t, db.DeleteSubmission(ctx, fresh.ID), ErrNotFound)

	_, err = db.GetSubmission(ctx, fresh.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimits(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	start := Now().Add(-2 * time.Hour)
	rec := &models.RateLimitRecord{IPAddress: "1.2.3.4", SubmissionCount: 1, FirstAttempt: start, LastAttempt: start}
	require.NoError(t, db.CreateRateLimit(ctx, rec))

	_, err := db.FindRecentRateLimit(ctx, "1.2.3.4", Now().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := db.FindRecentRateLimit(ctx, "1.2.3.4", start.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	now := Now()
	require.NoError(t, db.IncrementRateLimit(ctx, rec.ID, now))
	got, err = db.FindRecentRateLimit(ctx, "1.2.3.4", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, got.SubmissionCount)
	assert.True(t, got.LastAttempt.Equal(now))

	other := &models.RateLimitRecord{IPAddress: "5.6.7.8", SubmissionCount: 1, FirstAttempt: start, LastAttempt: start}
	require.NoError(t, db.CreateRateLimit(ctx, other))

	purged, err := db.DeleteRateLimitsBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, db.DeleteRateLimits(ctx, "1.2.3.4"))
	recs, err := db.ListRateLimits(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestForms_CRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	form := &models.FormTemplate{Title: "Kontakt", FormCode: "<form></form>"}
	require.NoError(t, db.CreateForm(ctx, form))

	form.Title = "Kontakt 2"
	require.NoError(t, db.UpdateForm(ctx, form))

	got, err := db.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kontakt 2", got.Title)

	forms, err := db.ListForms(ctx)
	require.NoError(t, err)
	assert.Len(t, forms, 1)

	require.NoError(t, db.DeleteForm(ctx, form.ID))
	_, err = db.GetForm(ctx, form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.UpdateForm(ctx, form), ErrNotFound)
}

func TestOptions_Upsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	values, err := db.GetOptions(ctx, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, db.SetOptions(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, db.SetOptions(ctx, map[string]string{"a": "3"}))

	values, err = db.GetOptions(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, values)
}
