package http

import "net/http"

// Handler is the platform handler type used everywhere
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what a module sees when it mounts its read-only endpoints
// The progress listener only serves GETs, so that is all it exposes
type Router interface {
	Get(path string, h Handler)
	Use(mw ...func(http.Handler) http.Handler)

	// Mux returns the underlying handler for serving or tests
	Mux() http.Handler
}
