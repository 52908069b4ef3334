package model

// FilterAll is the sentinel meaning "no constraint from this dimension".
const FilterAll = "all"

// DateFilter selects a relative or explicit date window.
type DateFilter string

const (
	DateAll       DateFilter = "all"
	DateToday     DateFilter = "today"
	DateYesterday DateFilter = "yesterday"
	DateLastWeek  DateFilter = "lastWeek"
	DateLastMonth DateFilter = "lastMonth"
	DateThisMonth DateFilter = "thisMonth"
	DateCustom    DateFilter = "custom"
)

// DateRange is an inclusive custom window. Either end may be empty.
type DateRange struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// FilterCriteria is the raw filter input of a list view.
type FilterCriteria struct {
	SearchTerm     string     `json:"searchTerm,omitempty" yaml:"search_term,omitempty"` // comma-separated OR terms
	Fields         []string   `json:"fields,omitempty" yaml:"fields,omitempty"`          // searchable fields
	CategoryFilter string     `json:"categoryFilter,omitempty" yaml:"category_filter,omitempty"`
	CategoryField  string     `json:"categoryField,omitempty" yaml:"category_field,omitempty"`
	StatusFilter   string     `json:"statusFilter,omitempty" yaml:"status_filter,omitempty"`
	StatusField    string     `json:"statusField,omitempty" yaml:"status_field,omitempty"`
	DateFilter     DateFilter `json:"dateFilter,omitempty" yaml:"date_filter,omitempty"`
	DateField      string     `json:"dateField,omitempty" yaml:"date_field,omitempty"`
	CustomRange    *DateRange `json:"customRange,omitempty" yaml:"custom_range,omitempty"`
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is a single-column sort. Type optionally forces the
// comparison kind: "date", "string" or "number".
type SortSpec struct {
	Key       string        `json:"key,omitempty" yaml:"key,omitempty"`
	Direction SortDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
	Type      string        `json:"type,omitempty" yaml:"type,omitempty"`
}

// PageSpec selects one page. A PageSize of zero or less means unpaginated.
type PageSpec struct {
	Page     int `json:"page" yaml:"page"`
	PageSize int `json:"pageSize" yaml:"page_size"`
}

// ViewState is the serializable state of one list screen.
type ViewState struct {
	Criteria FilterCriteria `json:"criteria"`
	Sort     SortSpec       `json:"sort"`
	Page     PageSpec       `json:"page"`
}

// MetricKind names a derived metric reduction.
type MetricKind string

const (
	MetricCount      MetricKind = "count"
	MetricSum        MetricKind = "sum"
	MetricAvg        MetricKind = "avg"
	MetricMin        MetricKind = "min"
	MetricMax        MetricKind = "max"
	MetricPercentage MetricKind = "percentage"
)

// MetricSpec describes one summary-card value. Where narrows the
// reduced set (e.g. "this month"); for percentage it is the numerator.
type MetricSpec struct {
	Name  string          `json:"name" yaml:"name"`
	Kind  MetricKind      `json:"kind" yaml:"kind"`
	Field string          `json:"field,omitempty" yaml:"field,omitempty"`
	Where *FilterCriteria `json:"where,omitempty" yaml:"where,omitempty"`
}

// Column is a config-level export column bound to a record field.
type Column struct {
	Header string `json:"header" yaml:"header"`
	Field  string `json:"field" yaml:"field"`
}

// PageResult is what a list view renders.
type PageResult struct {
	PageItems  []Record `json:"pageItems"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}
