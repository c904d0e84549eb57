package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/khdigital94/hdforms/pkg/models"
)

// CreateForm creates a new form template
func (db *DB) CreateForm(ctx context.Context, form *models.FormTemplate) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, form_code, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, db.tables.Forms)
	now := Now()
	result, err := db.ExecContext(ctx, query, form.Title, form.FormCode, now, now)
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	form.ID = id
	form.CreatedAt = now
	form.UpdatedAt = now
	return nil
}

// UpdateForm updates title and code of a form template
func (db *DB) UpdateForm(ctx context.Context, form *models.FormTemplate) error {
	query := fmt.Sprintf(`UPDATE %s SET title = ?, form_code = ?, updated_at = ? WHERE id = ?`, db.tables.Forms)
	now := Now()
	result, err := db.ExecContext(ctx, query, form.Title, form.FormCode, now, form.ID)
	if err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}
	form.UpdatedAt = now
	return nil
}

// GetForm returns a form template by ID
func (db *DB) GetForm(ctx context.Context, id int64) (*models.FormTemplate, error) {
	var form models.FormTemplate
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, db.tables.Forms)
	err := db.GetContext(ctx, &form, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return &form, nil
}

// ListForms returns all form templates, newest first
func (db *DB) ListForms(ctx context.Context) ([]*models.FormTemplate, error) {
	var forms []*models.FormTemplate
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY created_at DESC, id DESC`, db.tables.Forms)
	if err := db.SelectContext(ctx, &forms, query); err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// DeleteForm deletes a form template
func (db *DB) DeleteForm(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, db.tables.Forms)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	return expectAffected(result)
}
