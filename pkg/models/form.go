package models

import (
	"fmt"
	"time"
)

// FormTemplate is administrator-authored form markup/script
type FormTemplate struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	FormCode  string    `db:"form_code" json:"form_code"` // trusted, rendered verbatim
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Shortcode returns the embed directive for the form
func (f *FormTemplate) Shortcode() string {
	return ShortcodeFor(f.ID)
}

// ShortcodeFor returns the embed directive for a form id
func ShortcodeFor(id int64) string {
	return fmt.Sprintf(`[custom_form id="%d"]`, id)
}
