package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// Tables holds the prefixed table names
type Tables struct {
	Submissions string
	RateLimit   string
	Forms       string
	Options     string
}

// NewTables returns the table names for a prefix (e.g. "wp_")
func NewTables(prefix string) Tables {
	return Tables{
		Submissions: prefix + "custom_form_submissions",
		RateLimit:   prefix + "custom_form_rate_limit",
		Forms:       prefix + "custom_forms",
		Options:     prefix + "custom_form_options",
	}
}

// DB wraps sqlx.DB
type DB struct {
	*sqlx.DB
	tables Tables
}

// New creates a new database connection
func New(path, tablePrefix string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connect with WAL mode and foreign keys enabled
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, tables: NewTables(tablePrefix)}, nil
}

// Tables returns the table names used by this connection
func (db *DB) Tables() Tables {
	return db.tables
}

// Migrate runs database migrations
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, db.schema())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (db *DB) schema() string {
	return strings.NewReplacer(
		"{submissions}", db.tables.Submissions,
		"{rate_limit}", db.tables.RateLimit,
		"{forms}", db.tables.Forms,
		"{options}", db.tables.Options,
	).Replace(schema)
}

// Now returns the current time the way it is stored: UTC, whole seconds
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
