package router

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type route struct {
	method  string
	path    string
	handler http.Handler
}

// Router matches METHOD:PATH exactly first, then "*" wildcard routes in
// registration order. A trailing "*" matches any remaining segments.
type Router struct {
	mux       *http.ServeMux
	routes    map[string]http.Handler // key = METHOD:PATH
	paths     map[string]bool         // track registered paths
	wildcards []route
	logger    zerolog.Logger
}

func New(logger zerolog.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]http.Handler),
		paths:  make(map[string]bool),
		logger: logger,
	}

	// Catch-all handler for every path
	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		r.dispatch(lrw, req)

		event := r.logger.Info()
		switch {
		case lrw.statusCode >= 500:
			event = r.logger.Error()
		case lrw.statusCode >= 400:
			event = r.logger.Warn()
		}
		event.
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", lrw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})

	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	key := req.Method + ":" + req.URL.Path
	if h, ok := r.routes[key]; ok {
		h.ServeHTTP(w, req)
		return
	}

	pathMatched := r.paths[req.URL.Path]
	for _, rt := range r.wildcards {
		if !matchWildcardRoute(req.URL.Path, rt.path) {
			continue
		}
		if rt.method == req.Method {
			rt.handler.ServeHTTP(w, req)
			return
		}
		pathMatched = true
	}

	if pathMatched {
		// Path exists but method not allowed
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

// writeError replies with the same {"error": ...} envelope the handlers use.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// Trailing wildcard matches one or more remaining segments
	if last := len(routeSegments) - 1; routeSegments[last] == "*" {
		if len(requestSegments) < len(routeSegments) {
			return false
		}
		for i := 0; i < last; i++ {
			if routeSegments[i] != "*" && requestSegments[i] != routeSegments[i] {
				return false
			}
		}
		return requestSegments[last] != ""
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			if requestSegments[i] == "" {
				return false
			}
			continue
		}
		if requestSegments[i] != routeSegment {
			return false
		}
	}
	return true
}

// Segment returns the n-th (0-based) path segment of a request, or "".
func Segment(req *http.Request, n int) string {
	segments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if n < 0 || n >= len(segments) {
		return ""
	}
	return segments[n]
}

// --- Register paths ---
func (r *Router) register(method, path string, handler http.Handler) {
	if strings.Contains(path, "*") {
		r.wildcards = append(r.wildcards, route{method: method, path: path, handler: handler})
		return
	}
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler http.HandlerFunc)    { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler http.HandlerFunc)   { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler http.HandlerFunc)    { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler http.HandlerFunc) { r.register(http.MethodDelete, path, handler) }

// Handle registers any http.Handler, e.g. the metrics or swagger handlers.
func (r *Router) Handle(method, path string, handler http.Handler) {
	r.register(method, path, handler)
}

// Handler returns the root handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
