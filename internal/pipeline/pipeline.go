package pipeline

import (
	"slices"
	"time"

	"crm-pipeline/internal/model"
)

// ------------------- Filter → Sort → Paginate -------------------

// Filter returns the records matching pred in their original order.
// The result is a new slice; records are shared, never modified.
func Filter(records []model.Record, pred Predicate) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Sort returns a stably sorted copy. An empty key keeps input order.
func Sort(records []model.Record, spec model.SortSpec) []model.Record {
	out := slices.Clone(records)
	if out == nil {
		out = []model.Record{}
	}
	if spec.Key == "" {
		return out
	}
	slices.SortStableFunc(out, BuildComparator(spec))
	return out
}

// Paginate slices one page out of records. Negative or out-of-range
// pages yield an empty slice; a PageSize of zero or less returns every
// record as page 0.
func Paginate(records []model.Record, page model.PageSpec) []model.Record {
	if page.Page < 0 {
		return []model.Record{}
	}
	if page.PageSize <= 0 {
		if page.Page > 0 || len(records) == 0 {
			return []model.Record{}
		}
		return slices.Clone(records)
	}
	if page.Page >= pageCount(len(records), page.PageSize) {
		return []model.Record{}
	}
	start := page.Page * page.PageSize
	end := start + min(page.PageSize, len(records)-start)
	return slices.Clone(records[start:end])
}

// Apply filters then sorts. Sorting only ever sees the visible set.
func Apply(records []model.Record, criteria model.FilterCriteria, spec model.SortSpec, now time.Time) []model.Record {
	return Sort(Filter(records, BuildPredicate(criteria, now)), spec)
}

// Execute runs the full pipeline: filter, sort, paginate.
func Execute(records []model.Record, criteria model.FilterCriteria, spec model.SortSpec, page model.PageSpec, now time.Time) model.PageResult {
	return PageOf(Apply(records, criteria, spec, now), page)
}

// PageOf wraps an already filtered and sorted set into a page result.
func PageOf(sorted []model.Record, page model.PageSpec) model.PageResult {
	return model.PageResult{
		PageItems:  Paginate(sorted, page),
		TotalCount: len(sorted),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages(len(sorted), page.PageSize),
	}
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	if pageSize <= 0 {
		return 1
	}
	return pageCount(total, pageSize)
}

// pageCount is ceil(total/pageSize) without overflowing on huge sizes.
func pageCount(total, pageSize int) int {
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}
