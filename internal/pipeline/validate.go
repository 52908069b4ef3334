package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-pipeline/internal/model"
)

// ErrInvalidView marks view states and metric specs rejected at the API boundary.
var ErrInvalidView = errors.New("invalid view state")

var knownDateFilters = map[model.DateFilter]bool{
	"":                  true,
	model.DateAll:       true,
	model.DateToday:     true,
	model.DateYesterday: true,
	model.DateLastWeek:  true,
	model.DateLastMonth: true,
	model.DateThisMonth: true,
	model.DateCustom:    true,
}

// ValidateView checks a view state before it reaches the pipeline. The
// pipeline itself tolerates anything; this only catches client mistakes.
func ValidateView(v model.ViewState) error {
	if err := ValidateCriteria(v.Criteria); err != nil {
		return err
	}

	switch model.SortDirection(strings.ToLower(string(v.Sort.Direction))) {
	case "", model.SortAsc, model.SortDesc:
	default:
		return fmt.Errorf("%w: unknown sort direction %q", ErrInvalidView, v.Sort.Direction)
	}
	switch strings.ToLower(v.Sort.Type) {
	case kindAuto, kindDate, kindString, kindNumber:
	default:
		return fmt.Errorf("%w: unknown sort type %q", ErrInvalidView, v.Sort.Type)
	}

	if v.Page.Page < 0 {
		return fmt.Errorf("%w: page must be >= 0, got %d", ErrInvalidView, v.Page.Page)
	}
	if v.Page.PageSize < 0 {
		return fmt.Errorf("%w: pageSize must be >= 0, got %d", ErrInvalidView, v.Page.PageSize)
	}
	return nil
}

// ValidateCriteria checks the date dimension of a filter.
func ValidateCriteria(c model.FilterCriteria) error {
	if !knownDateFilters[c.DateFilter] {
		return fmt.Errorf("%w: unknown date filter %q", ErrInvalidView, c.DateFilter)
	}
	if c.DateFilter != model.DateCustom || c.CustomRange == nil {
		return nil
	}

	start, hasStart, err := parseBound("start", c.CustomRange.Start)
	if err != nil {
		return err
	}
	end, hasEnd, err := parseBound("end", c.CustomRange.End)
	if err != nil {
		return err
	}
	if hasStart && hasEnd && start.After(end) {
		return fmt.Errorf("%w: custom range start %s is after end %s", ErrInvalidView, c.CustomRange.Start, c.CustomRange.End)
	}
	return nil
}

func parseBound(name, value string) (time.Time, bool, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false, nil
	}
	t, ok := parseDate(value, time.UTC)
	if !ok {
		return time.Time{}, false, fmt.Errorf("%w: custom range %s %q is not a date", ErrInvalidView, name, value)
	}
	return t, true, nil
}

// ValidateMetrics checks metric kinds and their required fields.
func ValidateMetrics(specs []model.MetricSpec) error {
	for _, spec := range specs {
		switch model.MetricKind(strings.ToLower(string(spec.Kind))) {
		case model.MetricCount, model.MetricPercentage:
		case model.MetricSum, model.MetricAvg, model.MetricMin, model.MetricMax:
			if spec.Field == "" {
				return fmt.Errorf("%w: metric %s requires a field", ErrInvalidView, MetricName(spec))
			}
		default:
			return fmt.Errorf("%w: unknown metric kind %q", ErrInvalidView, spec.Kind)
		}
		if spec.Where != nil {
			if err := ValidateCriteria(*spec.Where); err != nil {
				return fmt.Errorf("metric %s: %w", MetricName(spec), err)
			}
		}
	}
	return nil
}
