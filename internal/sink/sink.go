// Package sink stores export artifacts.
package sink

import (
	"context"
	"fmt"
	"os"

	"crm-pipeline/pkg/utils"
)

// Sink persists one export file and returns where it can be fetched.
type Sink interface {
	Put(ctx context.Context, entity, fileName, contentType string, data []byte) (string, error)
}

// Local writes exports under a base directory, one folder per entity.
type Local struct {
	outputs *utils.OutputManager
}

// NewLocal creates the base directory if needed.
func NewLocal(dir string) (*Local, error) {
	om := utils.NewOutputManager(dir)
	if err := om.EnsureOutputDirExists(); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &Local{outputs: om}, nil
}

// Put writes the file and returns its download URL. A file with the same
// name (same entity, same day) is overwritten.
func (l *Local) Put(ctx context.Context, entity, fileName, contentType string, data []byte) (string, error) {
	path, err := l.outputs.GetOutputFilePath(entity, fileName)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return l.outputs.GetDownloadURL(entity, fileName), nil
}

// Open resolves a previously written export for download.
func (l *Local) Open(entity, fileName string) (string, error) {
	return l.outputs.ResolveFile(entity, fileName)
}
