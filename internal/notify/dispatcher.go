package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/khdigital94/hdforms/internal/formatter"
	"github.com/khdigital94/hdforms/internal/mailer"
	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

// SettingsSource provides the current notification settings
type SettingsSource interface {
	EmailSettings(ctx context.Context) (models.EmailSettings, error)
}

// Sender delivers a composed mail
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Alerter is an additional notification channel such as Telegram
type Alerter interface {
	Alert(ctx context.Context, sub *models.Submission) error
}

// Dispatcher informs administrators about new submissions
type Dispatcher struct {
	settings SettingsSource
	sender   Sender
	alerters []Alerter
	loc      *time.Location
	logger   *slog.Logger
}

// NewDispatcher creates a new dispatcher. sender may be nil when no relay is configured.
func NewDispatcher(settings SettingsSource, sender Sender, loc *time.Location, logger *slog.Logger, alerters ...Alerter) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		settings: settings,
		sender:   sender,
		alerters: alerters,
		loc:      loc,
		logger:   logger.With("component", "notify"),
	}
}

// Dispatch sends the submission to every configured channel. Failures are
// logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *models.Submission) {
	d.sendMail(ctx, sub)

	for _, a := range d.alerters {
		if err := a.Alert(ctx, sub); err != nil {
			d.logger.Error("Failed to send alert", "submission_id", sub.ID, "error", err)
		}
	}
}

func (d *Dispatcher) sendMail(ctx context.Context, sub *models.Submission) {
	if d.sender == nil {
		return
	}

	settings, err := d.settings.EmailSettings(ctx)
	if err != nil {
		d.logger.Error("Failed to load email settings", "error", err)
		return
	}

	msg, ok := BuildMessage(settings, sub, d.loc)
	if !ok {
		return
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("Failed to send notification", "submission_id", sub.ID, "error", err)
	}
}

// BuildMessage turns a submission into a notification mail. It reports false
// when notifications are disabled or no valid recipient is configured.
func BuildMessage(settings models.EmailSettings, sub *models.Submission, loc *time.Location) (mailer.Message, bool) {
	if !settings.Enabled {
		return mailer.Message{}, false
	}

	to := parser.FilterEmails(settings.RecipientList())
	if len(to) == 0 {
		return mailer.Message{}, false
	}

	return mailer.Message{
		FromName:  settings.FromName,
		FromEmail: settings.FromEmail,
		ReplyTo:   settings.FromEmail,
		To:        to,
		Cc:        parser.FilterEmails(settings.CCList()),
		Subject:   settings.RenderSubject(sub.FormName),
		Body:      formatter.MailBody(sub, loc),
		Date:      sub.CreatedAt,
	}, true
}
