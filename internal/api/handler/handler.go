// Package handler implements the HTTP endpoints of the list service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"crm-pipeline/internal/config"
	"crm-pipeline/internal/metrics"
	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/internal/sink"
	"crm-pipeline/internal/source"
	"crm-pipeline/internal/store"

	"github.com/rs/zerolog"
)

// RecordSource serves the current record set of an entity.
type RecordSource interface {
	Records(ctx context.Context, entity string) ([]model.Record, error)
	Invalidate(ctx context.Context, entity string) error
}

// Store is the persistence the handlers use.
type Store interface {
	Ping(ctx context.Context) error
	SaveDataset(ctx context.Context, entity string, records []model.Record) error
	ListDatasets(ctx context.Context) ([]model.DatasetInfo, error)
	SaveView(ctx context.Context, view *model.SavedView) error
	GetView(ctx context.Context, id string) (*model.SavedView, error)
	ListViews(ctx context.Context, entity string) ([]model.SavedView, error)
	DeleteView(ctx context.Context, id string) error
	SaveExport(ctx context.Context, res *model.ExportResult) error
	ListExports(ctx context.Context, entity string, limit int) ([]model.ExportResult, error)
}

// FileOpener resolves locally stored export files for download.
type FileOpener interface {
	Open(entity, fileName string) (string, error)
}

// Handler carries the dependencies of every endpoint.
type Handler struct {
	cfg     *config.Config
	records RecordSource
	store   Store
	sink    sink.Sink
	files   FileOpener
	metrics *metrics.Metrics
	logger  zerolog.Logger
	loc     *time.Location
	now     func() time.Time
}

// Options configures New. Sink, Files and Metrics are optional.
type Options struct {
	Config   *config.Config
	Records  RecordSource
	Store    Store
	Sink     sink.Sink
	Files    FileOpener
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	Location *time.Location
	Now      func() time.Time
}

// New builds a Handler.
func New(opts Options) *Handler {
	h := &Handler{
		cfg:     opts.Config,
		records: opts.Records,
		store:   opts.Store,
		sink:    opts.Sink,
		files:   opts.Files,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	return h
}

// clock is "now" in the configured zone, which anchors date filters.
func (h *Handler) clock() time.Time {
	return h.now().In(h.loc)
}

// entity resolves a configured entity by name or writes a 404.
func (h *Handler) entity(w http.ResponseWriter, name string) (config.EntityConfig, bool) {
	e, ok := h.cfg.Entity(name)
	if !ok {
		writeJSONError(w, "unknown entity: "+name, http.StatusNotFound)
	}
	return e, ok
}

// fail maps an error to a status code. Client errors echo the message;
// server errors are logged and reported generically.
func (h *Handler) fail(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrInvalidView):
		status = http.StatusBadRequest
	case errors.Is(err, source.ErrUnknownEntity), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= 500 {
		h.logger.Error().Err(err).Msg(message)
		writeJSONError(w, message, status)
		return
	}
	writeJSONError(w, err.Error(), status)
}

// decodeBody decodes an optional JSON body; an empty body leaves v as is.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSONError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   h.clock(),
	})
}
