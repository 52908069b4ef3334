package api

import (
	"net/http"

	"crm-pipeline/internal/api/handler"
	"crm-pipeline/internal/metrics"
	"crm-pipeline/pkg/router"

	_ "crm-pipeline/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RegisterRoutes wires every endpoint. Wildcard routes match in
// registration order, so specific ones come first.
func RegisterRoutes(r *router.Router, h *handler.Handler, m *metrics.Metrics) {
	r.GET("/health", h.Health)

	r.GET("/api/v1/entities", h.ListEntities)
	r.POST("/api/v1/entities/*/query", h.Query)
	r.POST("/api/v1/entities/*/export", h.Export)
	r.GET("/api/v1/entities/*/breakdown", h.Breakdown)

	r.GET("/api/v1/datasets", h.ListDatasets)
	r.PUT("/api/v1/datasets/*", h.PutDataset)

	r.GET("/api/v1/views", h.ListViews)
	r.POST("/api/v1/views", h.SaveView)
	r.GET("/api/v1/views/*", h.GetView)
	r.DELETE("/api/v1/views/*", h.DeleteView)

	r.GET("/api/v1/exports", h.ListExports)
	r.GET("/api/v1/exports/files/*", h.DownloadFile)

	if m != nil {
		r.Handle(http.MethodGet, "/metrics", m.Handler())
	}
	r.Handle(http.MethodGet, "/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
