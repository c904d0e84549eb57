package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/internal/formatter"
	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

// ErrNotFound is returned for unknown submissions
var ErrNotFound = errors.New("submission not found")

// Store is the persistence the console works on
type Store interface {
	GetSubmission(ctx context.Context, id int64) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter database.SubmissionFilter) ([]*models.Submission, error)
	CountSubmissions(ctx context.Context) (int, error)
	CountUnreadSubmissions(ctx context.Context) (int, error)
	CountSubmissionsBetween(ctx context.Context, from, to time.Time) (int, error)
	MarkSubmissionRead(ctx context.Context, id int64) error
	DeleteSubmission(ctx context.Context, id int64) error
	GetOptions(ctx context.Context, names ...string) (map[string]string, error)
	SetOptions(ctx context.Context, values map[string]string) error
}

// FileRemover deletes stored uploads
type FileRemover interface {
	Remove(names []string) (int, error)
}

// Row is one entry of the submission list
type Row struct {
	*models.Submission
	Contact parser.Contact `json:"contact"`
}

// Detail is the expanded view of one submission
type Detail struct {
	*models.Submission
	Contact parser.Contact           `json:"contact"`
	Fields  []formatter.LabeledField `json:"fields"`
}

// Counts are the dashboard numbers
type Counts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
	Today  int `json:"today"`
}

// Defaults apply to settings that were never saved
type Defaults struct {
	FromName  string
	FromEmail string
}

// Service implements the admin console operations
type Service struct {
	store     Store
	files     FileRemover
	defaults  Defaults
	loc       *time.Location
	now       func() time.Time
	sanitizer *parser.Sanitizer
	logger    *slog.Logger
}

// NewService creates a new admin service
func NewService(store Store, files FileRemover, defaults Defaults, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		files:     files,
		defaults:  defaults,
		loc:       loc,
		now:       time.Now,
		sanitizer: parser.NewSanitizer(),
		logger:    logger.With("component", "admin"),
	}
}

// List returns up to 100 submissions, newest first, optionally filtered
func (s *Service) List(ctx context.Context, search string) ([]Row, error) {
	subs, err := s.store.ListSubmissions(ctx, database.SubmissionFilter{
		Search: s.sanitizer.Text(search),
		Limit:  database.MaxListLimit,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, Row{Submission: sub, Contact: parser.ExtractContactRaw(sub.FormData)})
	}
	return rows, nil
}

// Counts returns total, unread and today's submissions. "Today" is the
// calendar day in the configured time zone.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error

	if c.Total, err = s.store.CountSubmissions(ctx); err != nil {
		return Counts{}, err
	}
	if c.Unread, err = s.store.CountUnreadSubmissions(ctx); err != nil {
		return Counts{}, err
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if c.Today, err = s.store.CountSubmissionsBetween(ctx, start, start.AddDate(0, 0, 1)); err != nil {
		return Counts{}, err
	}

	return c, nil
}

// Get returns the detail view of a submission
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &Detail{
		Submission: sub,
		Contact:    parser.ExtractContactRaw(sub.FormData),
		Fields:     formatter.VisibleFields(sub.FormData),
	}, nil
}

// MarkRead moves a submission to read
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.store.MarkSubmissionRead(ctx, id); err != nil {
		return mapNotFound(err)
	}
	s.logger.Info("Submission marked as read", "id", id)
	return nil
}

// Delete removes the attached files and then the submission. It returns the
// number of files removed.
func (s *Service) Delete(ctx context.Context, id int64) (int, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return 0, mapNotFound(err)
	}

	removed := 0
	if names := sub.Files.Names(); len(names) > 0 && s.files != nil {
		removed, err = s.files.Remove(names)
		if err != nil {
			s.logger.Warn("Some submission files could not be removed", "id", id, "error", err)
		}
	}

	if err := s.store.DeleteSubmission(ctx, id); err != nil {
		return removed, mapNotFound(err)
	}

	s.logger.Info("Submission deleted", "id", id, "files", removed)
	return removed, nil
}

// Option names in the options table
const (
	OptEnabled    = "cfs_email_enabled"
	OptRecipients = "cfs_email_recipients"
	OptCC         = "cfs_email_cc"
	OptFromName   = "cfs_email_from_name"
	OptFromEmail  = "cfs_email_from_email"
	OptSubject    = "cfs_email_subject"
)

// EmailSettings returns the stored notification settings with defaults applied
func (s *Service) EmailSettings(ctx context.Context) (models.EmailSettings, error) {
	values, err := s.store.GetOptions(ctx, OptEnabled, OptRecipients, OptCC, OptFromName, OptFromEmail, OptSubject)
	if err != nil {
		return models.EmailSettings{}, fmt.Errorf("failed to load email settings: %w", err)
	}

	get := func(name, def string) string {
		if v, ok := values[name]; ok {
			return v
		}
		return def
	}

	return models.EmailSettings{
		Enabled:    get(OptEnabled, "") == "1",
		Recipients: get(OptRecipients, ""),
		CC:         get(OptCC, ""),
		FromName:   get(OptFromName, s.defaults.FromName),
		FromEmail:  get(OptFromEmail, s.defaults.FromEmail),
		Subject:    get(OptSubject, models.DefaultSubjectTemplate),
	}, nil
}

// SaveSettings sanitizes and stores the notification settings
func (s *Service) SaveSettings(ctx context.Context, in models.EmailSettings) (models.EmailSettings, error) {
	out := models.EmailSettings{
		Enabled:    in.Enabled,
		Recipients: s.sanitizer.TextArea(in.Recipients),
		CC:         s.sanitizer.TextArea(in.CC),
		FromName:   s.sanitizer.Text(in.FromName),
		FromEmail:  s.sanitizer.Text(in.FromEmail),
		Subject:    s.sanitizer.Text(in.Subject),
	}
	if !parser.ValidEmail(out.FromEmail) {
		out.FromEmail = ""
	}

	enabled := "0"
	if out.Enabled {
		enabled = "1"
	}

	err := s.store.SetOptions(ctx, map[string]string{
		OptEnabled:    enabled,
		OptRecipients: out.Recipients,
		OptCC:         out.CC,
		OptFromName:   out.FromName,
		OptFromEmail:  out.FromEmail,
		OptSubject:    out.Subject,
	})
	if err != nil {
		return models.EmailSettings{}, fmt.Errorf("failed to save email settings: %w", err)
	}

	s.logger.Info("Email settings saved", "enabled", out.Enabled, "recipients", len(out.RecipientList()))
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
