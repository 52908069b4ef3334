package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/pkg/router"
)

// Export downloads the filtered, sorted set of an entity
// @Summary Export a list view
// @Description Export every record matching the view's criteria, in view sort order. Pagination is ignored.
// @Tags exports
// @Accept json
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/json
// @Param entity path string true "Entity name"
// @Param format query string false "csv (default), xlsx or json"
// @Param view body model.ViewState false "View state"
// @Success 200 {file} file "Export file named {entity}_export_{YYYY-MM-DD}.{ext}"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /entities/{entity}/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name := router.Segment(r, 3)
	ec, ok := h.entity(w, name)
	if !ok {
		return
	}

	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = string(pipeline.FormatCSV)
	}
	info, ok := pipeline.GetFormatInfo(formatName)
	if !ok {
		writeJSONError(w, "unsupported export format: "+formatName, http.StatusBadRequest)
		return
	}

	var view model.ViewState
	if err := decodeBody(r, &view); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	view.Page = model.PageSpec{}
	if err := pipeline.ValidateView(view); err != nil {
		h.fail(w, err, "invalid view")
		return
	}

	records, err := h.records.Records(r.Context(), name)
	if err != nil {
		h.fail(w, err, "failed to load records")
		return
	}

	now := h.clock()
	rows := pipeline.Apply(records, ec.Criteria(view.Criteria), ec.Sort(view.Sort), now)
	columns := ec.Columns
	if len(columns) == 0 {
		columns = pipeline.InferColumns(rows)
	}

	result := model.ExportResult{
		Entity:      name,
		Format:      string(info.Name),
		FileName:    pipeline.ExportFilename(name, info.Extension, now),
		RecordCount: len(rows),
		ExportedAt:  now.UTC(),
	}

	data, err := pipeline.Encode(info.Name, name, rows, pipeline.FieldColumns(columns), now)
	if err == nil && h.sink != nil {
		result.Location, err = h.sink.Put(r.Context(), name, result.FileName, info.MIMEType, data)
	}
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	if saveErr := h.store.SaveExport(r.Context(), &result); saveErr != nil {
		h.logger.Warn().Err(saveErr).Str("entity", name).Msg("failed to record export history")
	}
	h.metrics.ObserveExport(name, string(info.Name), len(rows), err)
	if err != nil {
		h.fail(w, err, "export failed")
		return
	}

	h.logger.Info().
		Str("entity", name).
		Str("format", string(info.Name)).
		Int("records", len(rows)).
		Str("location", result.Location).
		Msg("export written")

	w.Header().Set("Content-Type", info.MIMEType)
	w.Header().Set("Content-Disposition", attachment(result.FileName))
	w.Header().Set("X-Export-Id", result.ID)
	if result.Location != "" {
		w.Header().Set("X-Export-Location", result.Location)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ListExports returns export history
// @Summary Export history
// @Tags exports
// @Produce json
// @Param entity query string false "Only this entity"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {array} model.ExportResult
// @Router /exports [get]
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := h.store.ListExports(r.Context(), r.URL.Query().Get("entity"), limit)
	if err != nil {
		h.fail(w, err, "failed to list exports")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// DownloadFile serves a stored export file
// @Summary Download export file
// @Tags exports
// @Produce application/octet-stream
// @Param entity path string true "Entity name"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 404 {object} ErrorResponse
// @Router /exports/files/{entity}/{filename} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	entity, fileName := router.Segment(r, 4), router.Segment(r, 5)
	if h.files == nil || router.Segment(r, 6) != "" {
		writeJSONError(w, "file not found", http.StatusNotFound)
		return
	}
	path, err := h.files.Open(entity, fileName)
	if err != nil {
		writeJSONError(w, "file not found", http.StatusNotFound)
		return
	}

	contentType := "application/octet-stream"
	if info, ok := pipeline.GetFormatInfo(strings.TrimPrefix(filepath.Ext(fileName), ".")); ok {
		contentType = info.MIMEType
	}
	w.Header().Set("Content-Disposition", attachment(fileName))
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}
