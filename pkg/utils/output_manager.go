package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles export file organization and path management.
// Files are grouped in one directory per entity.
type OutputManager struct {
	BaseOutputDir string
	URLPrefix     string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
		URLPrefix:     "/api/v1/exports/files",
	}
}

// CreateEntityDir creates the directory holding an entity's exports.
func (om *OutputManager) CreateEntityDir(entity string) (string, error) {
	if err := checkName(entity); err != nil {
		return "", err
	}
	dir := filepath.Join(om.BaseOutputDir, entity)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	return dir, nil
}

// GetOutputFilePath generates a full path for an output file, creating
// the entity directory on demand.
func (om *OutputManager) GetOutputFilePath(entity, fileName string) (string, error) {
	dir, err := om.CreateEntityDir(entity)
	if err != nil {
		return "", err
	}
	// Clean the filename to remove any path separators
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// ResolveFile returns the path of an existing export file.
func (om *OutputManager) ResolveFile(entity, fileName string) (string, error) {
	if err := checkName(entity); err != nil {
		return "", err
	}
	if err := checkName(fileName); err != nil {
		return "", err
	}
	path := filepath.Join(om.BaseOutputDir, entity, fileName)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", fileName)
	}
	return path, nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(entity, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", om.URLPrefix, entity, filepath.Base(fileName))
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid path segment %q", name)
	}
	return nil
}
