package models

import "strings"

// DefaultSubjectTemplate is used when no subject was configured
const DefaultSubjectTemplate = "Neue Anfrage: {form_name}"

// EmailSettings process-wide notification configuration
type EmailSettings struct {
	Enabled    bool   `json:"enabled"`
	Recipients string `json:"recipients"` // comma separated
	CC         string `json:"cc"`         // comma separated
	FromName   string `json:"from_name"`
	FromEmail  string `json:"from_email"`
	Subject    string `json:"subject"` // supports {form_name}
}

// RecipientList returns the configured recipients
func (s EmailSettings) RecipientList() []string {
	return splitAddresses(s.Recipients)
}

// CCList returns the configured CC addresses
func (s EmailSettings) CCList() []string {
	return splitAddresses(s.CC)
}

// RenderSubject substitutes the form name into the subject template
func (s EmailSettings) RenderSubject(formName string) string {
	tpl := s.Subject
	if tpl == "" {
		tpl = DefaultSubjectTemplate
	}
	return strings.ReplaceAll(tpl, "{form_name}", formName)
}

func splitAddresses(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
