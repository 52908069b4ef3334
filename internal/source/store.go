package source

import (
	"context"
	"errors"

	"crm-pipeline/internal/model"
	"crm-pipeline/internal/store"
)

// DatasetLoader is the part of the store a StoreProvider needs.
type DatasetLoader interface {
	LoadDataset(ctx context.Context, entity string) ([]model.Record, error)
}

// StoreProvider serves the dataset last uploaded for an entity. An entity
// that has never been uploaded is an empty list, not an error.
type StoreProvider struct {
	Store      DatasetLoader
	Entity     string
	Transforms []string
}

// Records loads the stored dataset.
func (p *StoreProvider) Records(ctx context.Context) ([]model.Record, error) {
	records, err := p.Store.LoadDataset(ctx, p.Entity)
	if errors.Is(err, store.ErrNotFound) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ApplyTransforms(records, p.Transforms)
}
