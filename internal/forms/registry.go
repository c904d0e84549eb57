package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/khdigital94/hdforms/internal/database"
	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

var (
	ErrNotFound     = errors.New("form not found")
	ErrTitleMissing = errors.New("form title is required")
)

var shortcodeRegex = regexp.MustCompile(`\[custom_form\s+id\s*=\s*(?:"(\d*)"|'(\d*)'|(\d+))\s*\]`)

// Store persists form templates
type Store interface {
	CreateForm(ctx context.Context, form *models.FormTemplate) error
	UpdateForm(ctx context.Context, form *models.FormTemplate) error
	GetForm(ctx context.Context, id int64) (*models.FormTemplate, error)
	ListForms(ctx context.Context) ([]*models.FormTemplate, error)
	DeleteForm(ctx context.Context, id int64) error
}

// Registry manages form templates and renders them for embedding
type Registry struct {
	store     Store
	sanitizer *parser.Sanitizer
	logger    *slog.Logger
}

// NewRegistry creates a new form registry
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:     store,
		sanitizer: parser.NewSanitizer(),
		logger:    logger.With("component", "forms"),
	}
}

// Create stores a new form template
func (r *Registry) Create(ctx context.Context, title, code string) (*models.FormTemplate, error) {
	form := &models.FormTemplate{Title: r.sanitizer.Text(title), FormCode: code}
	if form.Title == "" {
		return nil, ErrTitleMissing
	}

	if err := r.store.CreateForm(ctx, form); err != nil {
		return nil, err
	}

	r.logger.Info("Form created", "id", form.ID, "title", form.Title)
	return form, nil
}

// Update replaces title and code of a form template
func (r *Registry) Update(ctx context.Context, id int64, title, code string) (*models.FormTemplate, error) {
	form := &models.FormTemplate{ID: id, Title: r.sanitizer.Text(title), FormCode: code}
	if form.Title == "" {
		return nil, ErrTitleMissing
	}

	if err := r.store.UpdateForm(ctx, form); err != nil {
		return nil, mapNotFound(err)
	}

	r.logger.Info("Form updated", "id", form.ID)
	return r.Get(ctx, id)
}

// Get returns a form template
func (r *Registry) Get(ctx context.Context, id int64) (*models.FormTemplate, error) {
	form, err := r.store.GetForm(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return form, nil
}

// List returns all form templates, newest first
func (r *Registry) List(ctx context.Context) ([]*models.FormTemplate, error) {
	return r.store.ListForms(ctx)
}

// Delete removes a form template
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteForm(ctx, id); err != nil {
		return mapNotFound(err)
	}
	r.logger.Info("Form deleted", "id", id)
	return nil
}

// Render returns the form code with its embed config injected. A missing id
// or unknown form yields inline error markup instead of an error.
func (r *Registry) Render(ctx context.Context, id int64, opts RenderOptions) (string, error) {
	if id <= 0 {
		return errorMarkup(MsgMissingID), nil
	}

	form, err := r.store.GetForm(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return errorMarkup(MsgNotFound), nil
	}
	if err != nil {
		return "", err
	}

	return Inject(form.FormCode, EmbedConfig{
		FormID:   InstanceKey(form, opts.Instance),
		FormName: form.Title,
		PostID:   opts.PostID,
	})
}

// ExpandShortcodes replaces every form shortcode in content with the rendered
// form. Repeated embeds of one form get increasing instance numbers.
func (r *Registry) ExpandShortcodes(ctx context.Context, content string, postID int64) (string, error) {
	var (
		renderErr error
		instances = make(map[int64]int)
	)

	out := shortcodeRegex.ReplaceAllStringFunc(content, func(match string) string {
		if renderErr != nil {
			return match
		}

		m := shortcodeRegex.FindStringSubmatch(match)
		raw := m[1] + m[2] + m[3]
		id, _ := strconv.ParseInt(raw, 10, 64)

		instances[id]++
		html, err := r.Render(ctx, id, RenderOptions{PostID: postID, Instance: instances[id]})
		if err != nil {
			renderErr = err
			return match
		}
		return html
	})

	if renderErr != nil {
		return "", fmt.Errorf("failed to expand shortcodes: %w", renderErr)
	}
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
