package handler

import (
	"net/http"
	"strings"

	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/pkg/router"
)

// SaveView creates or updates a saved view
// @Summary Save a view
// @Description Persist a named view state. Sending an existing id updates it.
// @Tags views
// @Accept json
// @Produce json
// @Param view body model.SavedView true "Saved view"
// @Success 201 {object} model.SavedView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /views [post]
func (h *Handler) SaveView(w http.ResponseWriter, r *http.Request) {
	var view model.SavedView
	if err := decodeBody(r, &view); err != nil {
		writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	view.Name = strings.TrimSpace(view.Name)
	if view.Name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.entity(w, view.Entity); !ok {
		return
	}
	if err := pipeline.ValidateView(view.State); err != nil {
		h.fail(w, err, "invalid view")
		return
	}

	if err := h.store.SaveView(r.Context(), &view); err != nil {
		h.fail(w, err, "failed to save view")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ListViews lists saved views
// @Summary List saved views
// @Tags views
// @Produce json
// @Param entity query string false "Only this entity"
// @Success 200 {array} model.SavedView
// @Router /views [get]
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.ListViews(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		h.fail(w, err, "failed to list views")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetView fetches one saved view
// @Summary Get a saved view
// @Tags views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} model.SavedView
// @Failure 404 {object} ErrorResponse
// @Router /views/{id} [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.store.GetView(r.Context(), router.Segment(r, 3))
	if err != nil {
		h.fail(w, err, "failed to get view")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteView removes a saved view
// @Summary Delete a saved view
// @Tags views
// @Param id path string true "View ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /views/{id} [delete]
func (h *Handler) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteView(r.Context(), router.Segment(r, 3)); err != nil {
		h.fail(w, err, "failed to delete view")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
