package forms

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

const (
	// ConfigPlaceholder is replaced with the JSON config wherever it occurs
	ConfigPlaceholder = "{{FORM_CONFIG}}"

	MsgMissingID = "Fehler: Formular ID fehlt"
	MsgNotFound  = "Fehler: Formular nicht gefunden"
)

var configLiteralRegex = regexp.MustCompile(`const\s+FORM_CONFIG\s*=\s*\{`)

// EmbedConfig is handed to the embedded form code
type EmbedConfig struct {
	FormID   string `json:"formId"`
	FormName string `json:"formName"`
	PostID   int64  `json:"postId"`
}

// RenderOptions describe one embed of a form on a page
type RenderOptions struct {
	PostID   int64
	Instance int // 1-based position among embeds of the same form on the page
}

// InstanceKey returns the form key for an embed, unique per page
func InstanceKey(form *models.FormTemplate, instance int) string {
	key := fmt.Sprintf("form_%d_%s", form.ID, parser.Slug(form.Title))
	if instance > 1 {
		key = fmt.Sprintf("%s_%d", key, instance)
	}
	return key
}

// Inject inserts the embed config into the form code. The structured
// placeholder takes precedence; otherwise the first FORM_CONFIG literal is
// extended. Code with neither is returned unchanged.
func Inject(code string, cfg EmbedConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode form config: %w", err)
	}

	if strings.Contains(code, ConfigPlaceholder) {
		return strings.ReplaceAll(code, ConfigPlaceholder, string(data)), nil
	}

	loc := configLiteralRegex.FindStringIndex(code)
	if loc == nil {
		return code, nil
	}

	return code[:loc[0]] + "const FORM_CONFIG = { ..." + string(data) + ", " + code[loc[1]:], nil
}

// errorMarkup is the inline error shown instead of a form
func errorMarkup(msg string) string {
	return `<p style="color: red;">` + msg + `</p>`
}
