package model

import "time"

// SavedView is a named, persisted ViewState for one entity.
type SavedView struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Name      string    `json:"name"`
	State     ViewState `json:"state"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DatasetInfo summarizes a stored record set.
type DatasetInfo struct {
	Entity      string    `json:"entity"`
	RecordCount int       `json:"recordCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	ID          string    `json:"id"`
	Entity      string    `json:"entity"`
	Format      string    `json:"format"`   // "csv", "xlsx", "json"
	FileName    string    `json:"fileName"` // {entity}_export_{YYYY-MM-DD}.{ext}
	Location    string    `json:"location,omitempty"`
	RecordCount int       `json:"recordCount"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exportedAt"`
}
