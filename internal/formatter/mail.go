package formatter

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

// DateLayout is used for dates shown to administrators
const DateLayout = "02.01.2006 15:04"

var reservedFields = map[string]bool{
	"form_id":   true,
	"form_name": true,
	"post_id":   true,
}

// IsReserved reports whether a payload key is bookkeeping rather than user input
func IsReserved(key string) bool {
	return reservedFields[key]
}

// FieldLabel turns a payload key into a label: underscores become spaces, first letter upper
func FieldLabel(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return string(unicode.ToUpper(r)) + label[size:]
}

// LabeledField is a visible payload field ready for display
type LabeledField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// VisibleFields returns the non-reserved fields of stored form data in order
func VisibleFields(formData string) []LabeledField {
	p, err := parser.ParsePayload(formData)
	if err != nil {
		return nil
	}

	var out []LabeledField
	for _, f := range p.Fields() {
		if IsReserved(f.Key) {
			continue
		}
		out = append(out, LabeledField{Key: f.Key, Label: FieldLabel(f.Key), Value: f.Text()})
	}
	return out
}

// MailBody renders the plain-text notification for a submission
func MailBody(sub *models.Submission, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Neue Anfrage über: %s\n\n", sub.FormName))
	sb.WriteString(fmt.Sprintf("Submission ID: #%d\n", sub.ID))
	sb.WriteString(fmt.Sprintf("Datum: %s\n\n", sub.CreatedAt.In(loc).Format(DateLayout)))

	for _, f := range VisibleFields(sub.FormData) {
		sb.WriteString(fmt.Sprintf("%s: %s\n", f.Label, f.Value))
	}

	if len(sub.Files) > 0 {
		sb.WriteString("\n--- Hochgeladene Dateien ---\n")
		for _, file := range sub.Files {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", file.OriginalName, file.URL))
		}
	}

	return sb.String()
}
