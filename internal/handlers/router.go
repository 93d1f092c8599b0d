// File: internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-medrag/internal/middleware"
	"github.com/iyunix/go-medrag/internal/services"
)

// RouterOptions carries the cross-cutting settings for NewRouter.
type RouterOptions struct {
	JWTSecret     string
	UploadLimiter *middleware.RateLimiter
	Logger        services.Logger
}

// NewRouter registers the API routes. /health stays public; everything under /api is
// behind the bearer middleware when a secret is configured.
func NewRouter(docs *DocumentHandler, opts RouterOptions) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = &services.NoOpLogger{}
	}

	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.RecoverPanic(logger))
	r.Use(middleware.LoggingMiddleware(logger))

	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewJWTMiddleware(opts.JWTSecret, logger))

	upload := http.Handler(http.HandlerFunc(docs.Upload))
	if opts.UploadLimiter != nil {
		upload = middleware.RateLimitMiddleware(opts.UploadLimiter, "upload", logger)(upload)
	}
	api.Handle("/upload", upload).Methods(http.MethodPost)
	api.HandleFunc("/query", docs.Query).Methods(http.MethodPost)
	api.HandleFunc("/documents", docs.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docs.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docs.DeleteDocument).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}
