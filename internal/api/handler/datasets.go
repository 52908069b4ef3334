package handler

import (
	"fmt"
	"mime"
	"net/http"

	"crm-pipeline/internal/config"
	"crm-pipeline/internal/model"
	"crm-pipeline/internal/source"
	"crm-pipeline/pkg/router"
)

// maxUploadBytes bounds dataset uploads.
const maxUploadBytes = 32 << 20

// PutDataset replaces an entity's stored dataset
// @Summary Upload a dataset
// @Description Replace the records of a store-backed entity. Accepts a JSON array (or {"data": [...]}) or CSV with a header row.
// @Tags datasets
// @Accept json
// @Accept text/csv
// @Produce json
// @Param entity path string true "Entity name"
// @Success 200 {object} model.DatasetInfo
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /datasets/{entity} [put]
func (h *Handler) PutDataset(w http.ResponseWriter, r *http.Request) {
	name := router.Segment(r, 3)
	ec, ok := h.entity(w, name)
	if !ok {
		return
	}
	if ec.Source.Type != config.SourceStore {
		writeJSONError(w, fmt.Sprintf("entity %s is served from a %s source", name, ec.Source.Type), http.StatusConflict)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var (
		records []model.Record
		err     error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		records, err = source.ReadCSV(r.Context(), body)
	} else {
		records, err = source.ReadJSON(body)
	}
	if err != nil {
		writeJSONError(w, "invalid dataset: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.SaveDataset(r.Context(), name, records); err != nil {
		h.fail(w, err, "failed to save dataset")
		return
	}
	if err := h.records.Invalidate(r.Context(), name); err != nil {
		h.logger.Warn().Err(err).Str("entity", name).Msg("failed to invalidate cached records")
	}

	h.logger.Info().Str("entity", name).Int("records", len(records)).Msg("dataset replaced")
	writeJSON(w, http.StatusOK, model.DatasetInfo{
		Entity:      name,
		RecordCount: len(records),
		UpdatedAt:   h.clock().UTC(),
	})
}

// ListDatasets lists stored datasets
// @Summary List datasets
// @Tags datasets
// @Produce json
// @Success 200 {array} model.DatasetInfo
// @Router /datasets [get]
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.ListDatasets(r.Context())
	if err != nil {
		h.fail(w, err, "failed to list datasets")
		return
	}
	writeJSON(w, http.StatusOK, infos)
}
