package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"crm-pipeline/internal/model"

	"github.com/google/uuid"
)

// SaveView inserts or updates a saved view. A new view gets an ID. When
// the view is the default, any other default of the entity is cleared.
func (s *Store) SaveView(ctx context.Context, view *model.SavedView) error {
	state, err := json.Marshal(view.State)
	if err != nil {
		return fmt.Errorf("failed to encode view state: %w", err)
	}

	now := s.now()
	if view.ID == "" {
		view.ID = uuid.New().String()
		view.CreatedAt = now
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = now
	}
	view.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if view.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE saved_views SET is_default = 0 WHERE entity = ? AND id <> ?`,
			view.Entity, view.ID); err != nil {
			return fmt.Errorf("failed to clear default view: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_views (id, entity, name, state, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity = excluded.entity,
			name = excluded.name,
			state = excluded.state,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at`,
		view.ID, view.Entity, view.Name, string(state), view.IsDefault, view.CreatedAt, view.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save view: %w", err)
	}
	return tx.Commit()
}

const viewColumns = `id, entity, name, state, is_default, created_at, updated_at`

// GetView fetches one saved view.
func (s *Store) GetView(ctx context.Context, id string) (*model.SavedView, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+viewColumns+` FROM saved_views WHERE id = ?`, id)
	view, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view %s: %w", id, err)
	}
	return view, nil
}

// ListViews returns saved views, optionally for one entity, default first.
func (s *Store) ListViews(ctx context.Context, entity string) ([]model.SavedView, error) {
	query := `SELECT ` + viewColumns + ` FROM saved_views`
	var args []interface{}
	if entity != "" {
		query += ` WHERE entity = ?`
		args = append(args, entity)
	}
	query += ` ORDER BY is_default DESC, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer rows.Close()

	views := []model.SavedView{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// DeleteView removes a saved view.
func (s *Store) DeleteView(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete view %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanView(row scanner) (*model.SavedView, error) {
	var view model.SavedView
	var state string
	if err := row.Scan(&view.ID, &view.Entity, &view.Name, &state, &view.IsDefault, &view.CreatedAt, &view.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(state), &view.State); err != nil {
		return nil, fmt.Errorf("failed to decode view state: %w", err)
	}
	return &view, nil
}
