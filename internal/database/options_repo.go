package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetOptions returns the stored values for the given option names.
// Names that were never saved are absent from the map.
func (db *DB) GetOptions(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	if len(names) == 0 {
		return values, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT name, value FROM %s WHERE name IN (?)`, db.tables.Options), names)
	if err != nil {
		return nil, fmt.Errorf("failed to build options query: %w", err)
	}

	rows, err := db.QueryxContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	return values, nil
}

// SetOptions upserts option values
func (db *DB) SetOptions(ctx context.Context, values map[string]string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, db.tables.Options)
	for name, value := range values {
		if _, err := db.ExecContext(ctx, query, name, value); err != nil {
			return fmt.Errorf("failed to set option %s: %w", name, err)
		}
	}
	return nil
}
