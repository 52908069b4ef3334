package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"crm-pipeline/internal/config"
	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/internal/refresh"
	"crm-pipeline/pkg/router"
)

// EntityInfo describes one configured list page.
type EntityInfo struct {
	Name string `json:"name"`
	config.EntityConfig
	SnapshotRecords int        `json:"snapshotRecords,omitempty"`
	RefreshedAt     *time.Time `json:"refreshedAt,omitempty"`
	RefreshError    string     `json:"refreshError,omitempty"`
}

// snapshotter is implemented by record sources that keep snapshots.
type snapshotter interface {
	Snapshot(entity string) (refresh.Snapshot, bool)
}

// QueryResponse is one rendered page plus its summary cards.
type QueryResponse struct {
	Entity string `json:"entity"`
	model.PageResult
	Metrics map[string]float64 `json:"metrics"`
	Sort    model.SortSpec     `json:"sort"`
}

// BreakdownResponse is the value distribution of one field.
type BreakdownResponse struct {
	Entity string             `json:"entity"`
	Field  string             `json:"field"`
	Total  int                `json:"total"`
	Groups []model.GroupCount `json:"groups"`
}

// ListEntities lists configured entities
// @Summary List entities
// @Description Configured list pages with their searchable fields, columns and metrics
// @Tags entities
// @Produce json
// @Success 200 {array} EntityInfo
// @Router /entities [get]
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.cfg.Entities))
	for name := range h.cfg.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]EntityInfo, 0, len(names))
	for _, name := range names {
		info := EntityInfo{Name: name, EntityConfig: h.cfg.Entities[name]}
		if snaps, ok := h.records.(snapshotter); ok {
			if snap, ok := snaps.Snapshot(name); ok {
				updated := snap.UpdatedAt
				info.SnapshotRecords = len(snap.Records)
				info.RefreshedAt = &updated
				info.RefreshError = snap.LastError
			}
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// Query runs a view state against an entity
// @Summary Query a list view
// @Description Filter, sort and paginate an entity's records. Metrics are computed over the whole filtered set.
// @Tags entities
// @Accept json
// @Produce json
// @Param entity path string true "Entity name" example(leads)
// @Param view body model.ViewState false "View state"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entities/{entity}/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	name := router.Segment(r, 3)
	ec, ok := h.entity(w, name)
	if !ok {
		return
	}

	var view model.ViewState
	if err := decodeBody(r, &view); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if view.Page.PageSize == 0 {
		view.Page.PageSize = h.cfg.DefaultPageSize
	}

	start := time.Now()
	resp, err := h.runQuery(r, name, ec, view)
	h.metrics.ObserveQuery(name, resp.TotalCount, time.Since(start), err)
	if err != nil {
		h.fail(w, err, "failed to run query")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) runQuery(r *http.Request, name string, ec config.EntityConfig, view model.ViewState) (QueryResponse, error) {
	if err := pipeline.ValidateView(view); err != nil {
		return QueryResponse{}, err
	}
	records, err := h.records.Records(r.Context(), name)
	if err != nil {
		return QueryResponse{}, err
	}

	now := h.clock()
	criteria := ec.Criteria(view.Criteria)
	sortSpec := ec.Sort(view.Sort)

	visible := pipeline.Apply(records, criteria, sortSpec, now)
	return QueryResponse{
		Entity:     name,
		PageResult: pipeline.PageOf(visible, view.Page),
		Metrics:    pipeline.Aggregate(visible, ec.ResolvedMetrics(), now),
		Sort:       sortSpec,
	}, nil
}

// Breakdown counts filtered records per value of a field
// @Summary Value distribution
// @Description Count filtered records per value of a categorical field, largest first
// @Tags entities
// @Produce json
// @Param entity path string true "Entity name"
// @Param field query string true "Field to group by"
// @Param search query string false "Comma-separated search terms"
// @Param category query string false "Category filter"
// @Param status query string false "Status filter"
// @Param dateFilter query string false "all, today, yesterday, lastWeek, lastMonth, thisMonth or custom"
// @Param start query string false "Custom range start"
// @Param end query string false "Custom range end"
// @Success 200 {object} BreakdownResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entities/{entity}/breakdown [get]
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	name := router.Segment(r, 3)
	ec, ok := h.entity(w, name)
	if !ok {
		return
	}

	q := r.URL.Query()
	field := q.Get("field")
	if field == "" {
		writeJSONError(w, "field is required", http.StatusBadRequest)
		return
	}
	criteria := criteriaFromQuery(q)
	if err := pipeline.ValidateCriteria(criteria); err != nil {
		h.fail(w, err, "invalid criteria")
		return
	}

	records, err := h.records.Records(r.Context(), name)
	if err != nil {
		h.fail(w, err, "failed to load records")
		return
	}

	filtered := pipeline.Filter(records, pipeline.BuildPredicate(ec.Criteria(criteria), h.clock()))
	writeJSON(w, http.StatusOK, BreakdownResponse{
		Entity: name,
		Field:  field,
		Total:  len(filtered),
		Groups: pipeline.Breakdown(filtered, field),
	})
}

func criteriaFromQuery(q url.Values) model.FilterCriteria {
	c := model.FilterCriteria{
		SearchTerm:     q.Get("search"),
		CategoryFilter: q.Get("category"),
		StatusFilter:   q.Get("status"),
		DateFilter:     model.DateFilter(q.Get("dateFilter")),
	}
	if start, end := q.Get("start"), q.Get("end"); start != "" || end != "" {
		c.CustomRange = &model.DateRange{Start: start, End: end}
	}
	return c
}

func attachment(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", fileName)
}
