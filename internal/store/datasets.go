package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crm-pipeline/internal/model"
)

// SaveDataset replaces the stored record set of an entity.
func (s *Store) SaveDataset(ctx context.Context, entity string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO datasets (entity, records, record_count, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(entity) DO UPDATE SET
			records = excluded.records,
			record_count = excluded.record_count,
			updated_at = excluded.updated_at`,
		entity, string(data), len(records), s.now())
	if err != nil {
		return fmt.Errorf("failed to save dataset %s: %w", entity, err)
	}
	return nil
}

// LoadDataset returns the stored records of an entity.
func (s *Store) LoadDataset(ctx context.Context, entity string) ([]model.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT records FROM datasets WHERE entity = ?`, entity).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", entity, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", entity, err)
	}

	var records []model.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", entity, err)
	}
	return records, nil
}

// ListDatasets summarizes every stored dataset, by entity name.
func (s *Store) ListDatasets(ctx context.Context) ([]model.DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity, record_count, updated_at FROM datasets ORDER BY entity`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	infos := []model.DatasetInfo{}
	for rows.Next() {
		var info model.DatasetInfo
		var updatedAt time.Time
		if err := rows.Scan(&info.Entity, &info.RecordCount, &updatedAt); err != nil {
			return nil, err
		}
		info.UpdatedAt = updatedAt
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
