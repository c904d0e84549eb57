package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/internal/ratelimit"
	"github.com/khdigital94/hdforms/internal/upload"
	"github.com/khdigital94/hdforms/pkg/models"
)

type fakeNotifier struct {
	got []*models.Submission
}

func (n *fakeNotifier) Dispatch(_ context.Context, sub *models.Submission) {
	n.got = append(n.got, sub)
}

type fakeStats struct {
	outcomes []ratelimit.Outcome
}

func (s *fakeStats) Record(_ context.Context, o ratelimit.Outcome) error {
	s.outcomes = append(s.outcomes, o)
	return nil
}

type failingStore struct{}

func (failingStore) CreateSubmission(context.Context, *models.Submission) error {
	return errors.New("disk full")
}

type allowAll struct{}

func (allowAll) CheckAndRecord(context.Context, string) (bool, error) { return true, nil }

type testEnv struct {
	svc      *Service
	db       *database.DB
	notifier *fakeNotifier
	stats    *fakeStats
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "intake.db"), "wp_")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{db: db, notifier: &fakeNotifier{}, stats: &fakeStats{}}
	env.svc = NewService(ratelimit.NewLimiter(db, logger), db, env.notifier, env.stats, logger)
	return env
}

func (e *testEnv) count(t *testing.T) int {
	n, err := e.db.CountSubmissions(context.Background())
	require.NoError(t, err)
	return n
}

func TestSubmit_Accepted(t *testing.T) {
	env := newTestEnv(t)
	files := `[{"filename":"cv-x1.pdf","original_name":"cv.pdf","size":12,"url":"https://example.com/uploads/form-submissions/cv-x1.pdf"}]`

	res, err := env.svc.Submit(context.Background(), Request{
		FormData:  `{"form_id":"3","form_name":"Kontakt <b>Seite</b>","name":"<i>Max</i>","_hp_field":"","nachricht":"Hallo\nWelt"}`,
		Files:     &files,
		ClientIP:  "203.0.113.1",
		UserAgent: "Mozilla/5.0\n<script>",
		Referer:   "https://example.com/kontakt",
	})
	require.NoError(t, err)
	assert.Equal(t, MsgSuccess, res.Message)

	sub, err := env.db.GetSubmission(context.Background(), res.SubmissionID)
	require.NoError(t, err)

	assert.Equal(t, "3", sub.FormID)
	assert.Equal(t, "Kontakt Seite", sub.FormName)
	assert.Equal(t, models.StatusUnread, sub.Status)
	assert.Equal(t, "203.0.113.1", sub.UserIP)
	assert.Equal(t, "Mozilla/5.0", sub.UserAgent)
	assert.Equal(t, "https://example.com/kontakt", sub.Referer)
	assert.Equal(t, []string{"cv-x1.pdf"}, sub.Files.Names())

	p, err := parser.ParsePayload(sub.FormData)
	require.NoError(t, err)
	assert.False(t, p.Has(HoneypotField))
	assert.Equal(t, "Max", p.String("name"))
	assert.Equal(t, "Hallo\nWelt", p.String("nachricht"))

	require.Len(t, env.notifier.got, 1)
	assert.Equal(t, res.SubmissionID, env.notifier.got[0].ID)
	assert.Equal(t, []ratelimit.Outcome{ratelimit.OutcomeAccepted}, env.stats.outcomes)
}

func TestSubmit_RepeatedEmptyHoneypotRemoved(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Submit(context.Background(), Request{
		FormData: `{"_hp_field":"bot","name":"x","_hp_field":""}`,
		ClientIP: "203.0.113.1",
	})
	require.NoError(t, err)

	sub, err := env.db.GetSubmission(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.NotContains(t, sub.FormData, HoneypotField)
	assert.JSONEq(t, `{"name":"x"}`, sub.FormData)
}

func TestSubmit_SanitizesNestedValues(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Submit(context.Background(), Request{
		FormData: `{"address":{"street":"<script>alert(1)</script>Main"},"list":[{"x":"<i>y</i>"}],"":"<b>leer</b>"}`,
		ClientIP: "203.0.113.1",
	})
	require.NoError(t, err)

	sub, err := env.db.GetSubmission(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"":"leer","address":{"street":"Main"},"list":[{"x":"y"}]}`, sub.FormData)
}

func TestSubmit_Defaults(t *testing.T) {
	env := newTestEnv(t)
	garbage := "not json"

	res, err := env.svc.Submit(context.Background(), Request{
		FormData: `{"form_name":"   ","email":"a@example.com"}`,
		Files:    &garbage,
		ClientIP: "203.0.113.1",
		Referer:  "javascript:alert(1)",
	})
	require.NoError(t, err)

	sub, err := env.db.GetSubmission(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormID, sub.FormID)
	assert.Equal(t, DefaultFormName, sub.FormName)
	assert.Nil(t, sub.Files)
	assert.Empty(t, sub.Referer)
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		formData string
		want     error
		msg      string
	}{
		{"empty", "", ErrEmptyPayload, MsgEmptyPayload},
		{"too large", strings.Repeat("x", MaxPayloadSize+1), ErrPayloadTooLarge, MsgPayloadTooLarge},
		{"not json", "{oops", ErrInvalidPayload, MsgInvalidPayload},
		{"not an object", `["a"]`, ErrInvalidPayload, MsgInvalidPayload},
		{"empty object", `{}`, ErrInvalidPayload, MsgInvalidPayload},
		{"honeypot", `{"name":"bot","_hp_field":"http://spam"}`, ErrSpam, MsgSpam},
		{"honeypot number", `{"name":"bot","_hp_field":1}`, ErrSpam, MsgSpam},
		{"honeypot repeated", `{"_hp_field":"","name":"x","_hp_field":"bot"}`, ErrSpam, MsgSpam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.Submit(context.Background(), Request{FormData: tt.formData, ClientIP: "203.0.113.1"})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.msg, UserMessage(err))
			assert.Zero(t, env.count(t))
			assert.Empty(t, env.notifier.got)
		})
	}
}

func TestSubmit_OversizedRejectedBeforeParsing(t *testing.T) {
	env := newTestEnv(t)
	// valid JSON, one byte over the limit
	body := `{"a":"` + strings.Repeat("x", MaxPayloadSize-7) + `"}`
	require.Equal(t, MaxPayloadSize+1, len(body))

	_, err := env.svc.Submit(context.Background(), Request{FormData: body, ClientIP: "203.0.113.1"})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestSubmit_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < ratelimit.Threshold; i++ {
		_, err := env.svc.Submit(ctx, Request{FormData: `{"n":1}`, ClientIP: "203.0.113.1"})
		require.NoError(t, err)
	}

	_, err := env.svc.Submit(ctx, Request{FormData: `{"n":1}`, ClientIP: "203.0.113.1"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, MsgRateLimited, UserMessage(err))
	assert.Equal(t, ratelimit.Threshold, env.count(t))
}

func TestSubmit_StoreFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &fakeNotifier{}
	svc := NewService(allowAll{}, failingStore{}, notifier, nil, logger)

	_, err := svc.Submit(context.Background(), Request{FormData: `{"n":1}`, ClientIP: "203.0.113.1"})
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, MsgProcessing, UserMessage(err))
	assert.Empty(t, notifier.got)
}

func TestUserMessage_Upload(t *testing.T) {
	assert.Equal(t, MsgUploadType, UserMessage(upload.ErrTypeNotAllowed))
	assert.Equal(t, MsgUploadTooLarge, UserMessage(upload.ErrTooLarge))
	assert.Equal(t, MsgUploadTransport, UserMessage(upload.ErrTransport))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{"remote addr", nil, "198.51.100.2:4321", true, "198.51.100.2"},
		{"client-ip first", map[string]string{"Client-IP": "203.0.113.7", "X-Forwarded-For": "203.0.113.8"}, "10.0.0.1:1", true, "203.0.113.7"},
		{"xff first hop", map[string]string{"X-Forwarded-For": "203.0.113.8, 10.0.0.2"}, "10.0.0.1:1", true, "203.0.113.8"},
		{"untrusted headers", map[string]string{"X-Forwarded-For": "203.0.113.8"}, "10.0.0.1:1", false, "10.0.0.1"},
		{"invalid header", map[string]string{"Client-IP": "evil"}, "10.0.0.1:1", true, UnknownIP},
		{"ipv6", nil, "[2001:db8::1]:80", true, "2001:db8::1"},
		{"garbage remote", nil, "", true, UnknownIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(h, tt.remote, tt.trust))
		})
	}
}

func TestNormalizeReferer(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", NormalizeReferer("https://example.com/a?b=1"))
	assert.Equal(t, "", NormalizeReferer("javascript:alert(1)"))
	assert.Equal(t, "", NormalizeReferer("/relative"))
	assert.Equal(t, "", NormalizeReferer(""))
}
