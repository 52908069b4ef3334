package pipeline

import (
	"strings"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/pkg/utils"
)

// Default field names read by the category, status and date dimensions.
const (
	DefaultCategoryField = "category"
	DefaultStatusField   = "status"
	DefaultDateField     = "date"
)

// Predicate decides whether a record is part of a filtered view.
type Predicate func(rec model.Record) bool

// WithDefaults fills unset dimension field names.
func WithDefaults(c model.FilterCriteria) model.FilterCriteria {
	if c.CategoryField == "" {
		c.CategoryField = DefaultCategoryField
	}
	if c.StatusField == "" {
		c.StatusField = DefaultStatusField
	}
	if c.DateField == "" {
		c.DateField = DefaultDateField
	}
	return c
}

// BuildPredicate converts filter inputs into a conjunction of the active
// dimensions. now anchors relative date windows; its location is the
// day-truncation zone.
func BuildPredicate(criteria model.FilterCriteria, now time.Time) Predicate {
	c := WithDefaults(criteria)

	var checks []Predicate
	if terms := searchTerms(c.SearchTerm); len(terms) > 0 {
		checks = append(checks, searchPredicate(terms, c.Fields))
	}
	if isActive(c.CategoryFilter) {
		checks = append(checks, equalsPredicate(c.CategoryField, c.CategoryFilter))
	}
	if isActive(c.StatusFilter) {
		checks = append(checks, equalsPredicate(c.StatusField, c.StatusFilter))
	}
	if check := datePredicate(c, now); check != nil {
		checks = append(checks, check)
	}

	return func(rec model.Record) bool {
		for _, check := range checks {
			if !check(rec) {
				return false
			}
		}
		return true
	}
}

func isActive(filter string) bool {
	f := strings.TrimSpace(filter)
	return f != "" && !strings.EqualFold(f, model.FilterAll)
}

// searchTerms splits on commas, trims and lowercases, dropping empty terms.
func searchTerms(search string) []string {
	var terms []string
	for _, part := range strings.Split(search, ",") {
		term := strings.ToLower(strings.TrimSpace(part))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// searchPredicate matches when any term is a substring of any field.
// With no configured fields every top-level field is searched.
func searchPredicate(terms []string, fields []string) Predicate {
	return func(rec model.Record) bool {
		if len(fields) == 0 {
			for _, v := range rec {
				if containsAny(v, terms) {
					return true
				}
			}
			return false
		}
		for _, field := range fields {
			v, ok := rec.Lookup(field)
			if ok && containsAny(v, terms) {
				return true
			}
		}
		return false
	}
}

// containsAny walks nested values and tests their text against the terms.
func containsAny(v interface{}, terms []string) bool {
	switch val := v.(type) {
	case nil:
		return false
	case map[string]interface{}:
		for _, inner := range val {
			if containsAny(inner, terms) {
				return true
			}
		}
		return false
	case model.Record:
		return containsAny(map[string]interface{}(val), terms)
	case []interface{}:
		for _, inner := range val {
			if containsAny(inner, terms) {
				return true
			}
		}
		return false
	}

	text := strings.ToLower(utils.FormatValue(v))
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func equalsPredicate(field, want string) Predicate {
	want = strings.TrimSpace(want)
	return func(rec model.Record) bool {
		v, ok := rec.Lookup(field)
		if !ok || v == nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(utils.FormatValue(v)), want)
	}
}

// datePredicate returns nil when the date dimension is inactive.
func datePredicate(c model.FilterCriteria, now time.Time) Predicate {
	loc := now.Location()
	today := startOfDay(now, loc)

	var inWindow func(day time.Time) bool
	switch c.DateFilter {
	case model.DateToday:
		inWindow = func(day time.Time) bool { return day.Equal(today) }
	case model.DateYesterday:
		yesterday := today.AddDate(0, 0, -1)
		inWindow = func(day time.Time) bool { return day.Equal(yesterday) }
	case model.DateLastWeek:
		from := today.AddDate(0, 0, -7)
		inWindow = func(day time.Time) bool { return !day.Before(from) }
	case model.DateLastMonth:
		from := today.AddDate(0, 0, -30)
		inWindow = func(day time.Time) bool { return !day.Before(from) }
	case model.DateThisMonth:
		inWindow = func(day time.Time) bool {
			return day.Year() == today.Year() && day.Month() == today.Month()
		}
	case model.DateCustom:
		inWindow = customWindow(c.CustomRange, loc)
		if inWindow == nil {
			return nil
		}
	default:
		return nil
	}

	field := c.DateField
	return func(rec model.Record) bool {
		v, ok := rec.Lookup(field)
		if !ok {
			return false
		}
		t, ok := parseDate(v, loc)
		if !ok {
			return false
		}
		return inWindow(startOfDay(t, loc))
	}
}

// customWindow is inclusive on both ends. Missing or unparseable bounds
// leave that side open; no bounds at all disables the dimension.
func customWindow(r *model.DateRange, loc *time.Location) func(day time.Time) bool {
	if r == nil {
		return nil
	}
	start, hasStart := parseDate(r.Start, loc)
	end, hasEnd := parseDate(r.End, loc)
	if !hasStart && !hasEnd {
		return nil
	}
	if hasStart {
		start = startOfDay(start, loc)
	}
	if hasEnd {
		end = startOfDay(end, loc)
	}
	return func(day time.Time) bool {
		if hasStart && day.Before(start) {
			return false
		}
		if hasEnd && day.After(end) {
			return false
		}
		return true
	}
}
