package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sanitizer turns untrusted submitter input into plain text
type Sanitizer struct {
	whitespaceRegex *regexp.Regexp
	lineSpaceRegex  *regexp.Regexp
	invisibleRegex  *regexp.Regexp
}

// NewSanitizer creates a new sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		whitespaceRegex: regexp.MustCompile(`\s+`),
		lineSpaceRegex:  regexp.MustCompile(`[^\S\n]+\n`),
		// zero-width and other invisible characters
		invisibleRegex: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}\x{0000}-\x{0008}\x{000B}\x{000C}\x{000E}-\x{001F}\x{007F}]+`),
	}
}

// Text strips markup and collapses the value onto a single line
func (s *Sanitizer) Text(v string) string {
	v = s.stripTags(v)
	v = s.whitespaceRegex.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}

// TextArea strips markup but keeps line breaks
func (s *Sanitizer) TextArea(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.ReplaceAll(v, "\r", "\n")
	v = s.stripTags(v)
	v = s.lineSpaceRegex.ReplaceAllString(v, "\n")
	return strings.TrimSpace(v)
}

func (s *Sanitizer) stripTags(v string) string {
	v = strings.ToValidUTF8(v, "")

	if strings.ContainsAny(v, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(v))
		if err == nil {
			doc.Find("script, style").Remove()
			v = doc.Text()
		}
	}

	return s.invisibleRegex.ReplaceAllString(v, "")
}
