package models

import "time"

// RateLimitRecord counts submission attempts of one IP inside the current window
type RateLimitRecord struct {
	ID              int64     `db:"id"`
	IPAddress       string    `db:"ip_address"`
	SubmissionCount int       `db:"submission_count"`
	FirstAttempt    time.Time `db:"first_attempt"`
	LastAttempt     time.Time `db:"last_attempt"`
}
