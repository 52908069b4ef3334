package store

import (
	"context"
	"database/sql"
	"fmt"

	"crm-pipeline/internal/model"

	"github.com/google/uuid"
)

// SaveExport records one export attempt, successful or not.
func (s *Store) SaveExport(ctx context.Context, res *model.ExportResult) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.ExportedAt.IsZero() {
		res.ExportedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_history (id, entity, format, file_name, location, record_count, success, error_message, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Entity, res.Format, res.FileName, res.Location, res.RecordCount, res.Success, res.Error, res.ExportedAt)
	if err != nil {
		return fmt.Errorf("failed to save export record: %w", err)
	}
	return nil
}

// ListExports returns the most recent exports first. An empty entity
// lists all; limit <= 0 means no limit.
func (s *Store) ListExports(ctx context.Context, entity string, limit int) ([]model.ExportResult, error) {
	query := `SELECT id, entity, format, file_name, location, record_count, success, error_message, exported_at FROM export_history`
	var args []interface{}
	if entity != "" {
		query += ` WHERE entity = ?`
		args = append(args, entity)
	}
	query += ` ORDER BY exported_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	results := []model.ExportResult{}
	for rows.Next() {
		var res model.ExportResult
		var location, errMsg sql.NullString
		if err := rows.Scan(&res.ID, &res.Entity, &res.Format, &res.FileName, &location,
			&res.RecordCount, &res.Success, &errMsg, &res.ExportedAt); err != nil {
			return nil, err
		}
		res.Location = location.String
		res.Error = errMsg.String
		results = append(results, res)
	}
	return results, rows.Err()
}
