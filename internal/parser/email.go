package parser

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidEmail reports whether v is a syntactically valid email address
func ValidEmail(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return validate.Var(v, "email") == nil
}

// FilterEmails returns the valid addresses of list, in order
func FilterEmails(list []string) []string {
	var out []string
	for _, addr := range list {
		if addr = strings.TrimSpace(addr); ValidEmail(addr) {
			out = append(out, addr)
		}
	}
	return out
}
