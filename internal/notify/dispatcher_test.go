package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khdigital94/hdforms/internal/mailer"
	"github.com/khdigital94/hdforms/pkg/models"
)

type staticSettings struct {
	s   models.EmailSettings
	err error
}

func (s staticSettings) EmailSettings(context.Context) (models.EmailSettings, error) {
	return s.s, s.err
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeAlerter struct {
	calls int
	err   error
}

func (a *fakeAlerter) Alert(context.Context, *models.Submission) error {
	a.calls++
	return a.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSubmission() *models.Submission {
	return &models.Submission{
		ID:        5,
		FormName:  "Kontakt",
		FormData:  `{"form_id":"1","name":"Max"}`,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func enabledSettings() models.EmailSettings {
	return models.EmailSettings{
		Enabled:    true,
		Recipients: "a@example.com, nope, b@example.com",
		CC:         "c@example.com,broken@",
		FromName:   "HD Forms",
		FromEmail:  "noreply@example.com",
		Subject:    "Neu: {form_name}",
	}
}

func TestBuildMessage(t *testing.T) {
	msg, ok := BuildMessage(enabledSettings(), testSubmission(), time.UTC)
	require.True(t, ok)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
	assert.Equal(t, []string{"c@example.com"}, msg.Cc)
	assert.Equal(t, "noreply@example.com", msg.ReplyTo)
	assert.Equal(t, "Neu: Kontakt", msg.Subject)
	assert.Contains(t, msg.Body, "Submission ID: #5")
	assert.Contains(t, msg.Body, "Name: Max")
	assert.NotContains(t, msg.Body, "Form id")
}

func TestBuildMessage_Skips(t *testing.T) {
	s := enabledSettings()
	s.Enabled = false
	_, ok := BuildMessage(s, testSubmission(), time.UTC)
	assert.False(t, ok)

	s = enabledSettings()
	s.Recipients = " , invalid"
	_, ok = BuildMessage(s, testSubmission(), time.UTC)
	assert.False(t, ok)
}

func TestBuildMessage_DefaultSubject(t *testing.T) {
	s := enabledSettings()
	s.Subject = ""
	msg, ok := BuildMessage(s, testSubmission(), time.UTC)
	require.True(t, ok)
	assert.Equal(t, "Neue Anfrage: Kontakt", msg.Subject)
}

func TestDispatch_FailuresAreSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	alerter := &fakeAlerter{err: errors.New("telegram down")}
	d := NewDispatcher(staticSettings{s: enabledSettings()}, sender, time.UTC, discard(), alerter)

	d.Dispatch(context.Background(), testSubmission())

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, 1, alerter.calls)
}

func TestDispatch_SettingsErrorStillAlerts(t *testing.T) {
	sender := &fakeSender{}
	alerter := &fakeAlerter{}
	d := NewDispatcher(staticSettings{err: errors.New("db locked")}, sender, time.UTC, discard(), alerter)

	d.Dispatch(context.Background(), testSubmission())

	assert.Empty(t, sender.sent)
	assert.Equal(t, 1, alerter.calls)
}

func TestDispatch_NoSender(t *testing.T) {
	d := NewDispatcher(staticSettings{s: enabledSettings()}, nil, nil, discard())
	d.Dispatch(context.Background(), testSubmission())
}
