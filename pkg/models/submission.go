package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus moderation state of a submission
type SubmissionStatus string

const (
	StatusUnread SubmissionStatus = "unread"
	StatusRead   SubmissionStatus = "read"
)

// Valid reports whether s is one of the known statuses
func (s SubmissionStatus) Valid() bool {
	return s == StatusUnread || s == StatusRead
}

// Submission represents one recorded form post
type Submission struct {
	ID        int64            `db:"id" json:"id"`
	FormID    string           `db:"form_id" json:"form_id"`
	FormName  string           `db:"form_name" json:"form_name"`
	FormData  string           `db:"form_data" json:"-"` // JSON object, key order preserved
	Files     FileList         `db:"files" json:"files"` // NULL when nothing was attached
	UserIP    string           `db:"user_ip" json:"user_ip"`
	UserAgent string           `db:"user_agent" json:"user_agent"`
	Referer   string           `db:"referer" json:"referer"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	Status    SubmissionStatus `db:"status" json:"status"`
}

// IsRead returns true once an administrator has opened the submission
func (s *Submission) IsRead() bool {
	return s.Status == StatusRead
}

// FileDescriptor describes a stored upload attached to a submission
type FileDescriptor struct {
	Filename     string `json:"filename"`      // stored name inside the upload directory
	OriginalName string `json:"original_name"` // name as sent by the browser
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// FileList is stored as a JSON array in the files column
type FileList []FileDescriptor

// Names returns the stored file names
func (l FileList) Names() []string {
	names := make([]string, 0, len(l))
	for _, f := range l {
		if f.Filename != "" {
			names = append(names, f.Filename)
		}
	}
	return names
}

// Scan implements sql.Scanner
func (l *FileList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported files column type %T", src)
	}

	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	var files FileList
	if err := json.Unmarshal(data, &files); err != nil {
		return fmt.Errorf("failed to decode files: %w", err)
	}
	*l = files
	return nil
}

// Value implements driver.Valuer
func (l FileList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal([]FileDescriptor(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode files: %w", err)
	}
	return string(data), nil
}
