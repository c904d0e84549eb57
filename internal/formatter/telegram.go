package formatter

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/khdigital94/hdforms/internal/parser"
	"github.com/khdigital94/hdforms/pkg/models"
)

// TelegramFormatter formats submissions for Telegram
type TelegramFormatter struct {
	maxLength int
	loc       *time.Location
}

// NewTelegramFormatter creates a new Telegram formatter
func NewTelegramFormatter(loc *time.Location) *TelegramFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return &TelegramFormatter{
		maxLength: 4000, // Leave room for markup
		loc:       loc,
	}
}

// FormatSubmission formats a submission alert
func (f *TelegramFormatter) FormatSubmission(sub *models.Submission) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>Neue Anfrage:</b> %s\n", f.escapeHTML(sub.FormName)))
	sb.WriteString(fmt.Sprintf("<b>ID:</b> #%d\n", sub.ID))
	sb.WriteString(fmt.Sprintf("<b>Datum:</b> %s\n", sub.CreatedAt.In(f.loc).Format(DateLayout)))

	contact := parser.ExtractContactRaw(sub.FormData)
	if contact.Name != "" || contact.Email != "" {
		sb.WriteString(fmt.Sprintf("<b>Kontakt:</b> %s", f.escapeHTML(contact.Name)))
		if contact.Email != "" {
			sb.WriteString(fmt.Sprintf(" &lt;%s&gt;", f.escapeHTML(contact.Email)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	var body strings.Builder
	for _, field := range VisibleFields(sub.FormData) {
		body.WriteString(fmt.Sprintf("%s: %s\n", field.Label, field.Value))
	}
	sb.WriteString(f.escapeHTML(f.truncate(body.String(), f.maxLength-sb.Len()-300)))

	if len(sub.Files) > 0 {
		sb.WriteString("\n<b>Dateien:</b>\n")
		for _, file := range sub.Files {
			sb.WriteString(fmt.Sprintf("• <a href=\"%s\">%s</a>\n",
				html.EscapeString(file.URL), f.escapeHTML(file.OriginalName)))
		}
	}

	return sb.String()
}

// FormatStats formats the /stats reply
func (f *TelegramFormatter) FormatStats(total, unread, today int) string {
	return fmt.Sprintf("<b>Anfragen</b>\nGesamt: %d\nUngelesen: %d\nHeute: %d", total, unread, today)
}

// escapeHTML escapes HTML special characters for Telegram
func (f *TelegramFormatter) escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// truncate truncates text to maxLen characters
func (f *TelegramFormatter) truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "\n… (gekürzt)"
}
