package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/internal/ratelimit"
	"github.com/khdigital94/hdforms/pkg/models"
)

const (
	// MaxPayloadSize is the largest accepted formData string in bytes
	MaxPayloadSize = 100 * 1024

	HoneypotField   = "_hp_field"
	DefaultFormID   = "unknown"
	DefaultFormName = "Custom Form"
)

// Limiter decides whether an IP may submit
type Limiter interface {
	CheckAndRecord(ctx context.Context, ip string) (bool, error)
}

// Store persists submissions
type Store interface {
	CreateSubmission(ctx context.Context, sub *models.Submission) error
}

// Notifier is told about every stored submission
type Notifier interface {
	Dispatch(ctx context.Context, sub *models.Submission)
}

// Request is one submission attempt as received over HTTP
type Request struct {
	FormData  string
	Files     *string // nil when the client sent no files field
	ClientIP  string
	UserAgent string
	Referer   string
}

// Result is returned for accepted submissions
type Result struct {
	Message      string `json:"message"`
	SubmissionID int64  `json:"submission_id"`
}

// Service validates and stores form submissions
type Service struct {
	limiter   Limiter
	store     Store
	notifier  Notifier
	stats     ratelimit.StatsRecorder
	sanitizer *parser.Sanitizer
	logger    *slog.Logger
}

// NewService creates a new intake service. notifier and stats may be nil.
func NewService(limiter Limiter, store Store, notifier Notifier, stats ratelimit.StatsRecorder, logger *slog.Logger) *Service {
	if stats == nil {
		stats = ratelimit.NopStats{}
	}
	return &Service{
		limiter:   limiter,
		store:     store,
		notifier:  notifier,
		stats:     stats,
		sanitizer: parser.NewSanitizer(),
		logger:    logger.With("component", "intake"),
	}
}

// Allow runs the rate limiter for ip. The upload action shares the quota.
func (s *Service) Allow(ctx context.Context, ip string) error {
	ok, err := s.limiter.CheckAndRecord(ctx, ip)
	if err != nil {
		s.logger.Error("Rate limiter failed", "ip", ip, "error", err)
		return ErrProcessing
	}
	if !ok {
		s.record(ctx, ratelimit.OutcomeRateLimited)
		return ErrRateLimited
	}
	return nil
}

// Submit validates, stores and announces one submission
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := s.Allow(ctx, req.ClientIP); err != nil {
		return nil, err
	}

	payload, err := s.validate(req.FormData)
	if err != nil {
		outcome := ratelimit.OutcomeInvalid
		if errors.Is(err, ErrSpam) {
			outcome = ratelimit.OutcomeSpam
			s.logger.Info("Honeypot triggered", "ip", req.ClientIP)
		}
		s.record(ctx, outcome)
		return nil, err
	}

	sub := &models.Submission{
		FormID:    s.orDefault(payload.String("form_id"), DefaultFormID),
		FormName:  s.orDefault(payload.String("form_name"), DefaultFormName),
		FormData:  payload.Raw(),
		Files:     decodeFiles(req.Files),
		UserIP:    req.ClientIP,
		UserAgent: s.sanitizer.Text(req.UserAgent),
		Referer:   NormalizeReferer(req.Referer),
		Status:    models.StatusUnread,
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		s.logger.Error("Failed to store submission", "form_id", sub.FormID, "error", err)
		return nil, ErrProcessing
	}

	s.logger.Info("Submission stored",
		"id", sub.ID,
		"form_id", sub.FormID,
		"files", len(sub.Files),
	)
	s.record(ctx, ratelimit.OutcomeAccepted)

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, sub)
	}

	return &Result{Message: MsgSuccess, SubmissionID: sub.ID}, nil
}

func (s *Service) validate(raw string) (*parser.Payload, error) {
	if raw == "" {
		return nil, ErrEmptyPayload
	}
	// size is checked on the raw bytes before any parsing
	if len(raw) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	payload, err := parser.ParsePayload(raw)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	if payload.Truthy(HoneypotField) {
		return nil, ErrSpam
	}

	payload, err = payload.Without(HoneypotField)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	payload, err = payload.Sanitize(s.sanitizer.TextArea)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	return payload, nil
}

func (s *Service) orDefault(v, def string) string {
	if v = s.sanitizer.Text(v); v != "" {
		return v
	}
	return def
}

func (s *Service) record(ctx context.Context, outcome ratelimit.Outcome) {
	if err := s.stats.Record(ctx, outcome); err != nil {
		s.logger.Debug("Failed to record intake stats", "outcome", outcome, "error", err)
	}
}

// RecordUpload counts a stored upload
func (s *Service) RecordUpload(ctx context.Context) {
	s.record(ctx, ratelimit.OutcomeUploaded)
}

// decodeFiles turns the client supplied files list into descriptors. Anything
// that is not a JSON list of descriptors is stored as NULL.
func decodeFiles(raw *string) models.FileList {
	if raw == nil {
		return nil
	}

	var files models.FileList
	if err := files.Scan(strings.TrimSpace(*raw)); err != nil {
		return nil
	}
	return files
}
