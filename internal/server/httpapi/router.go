// Package httpapi exposes cloudnotes over HTTP/JSON with a chi router.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/logging"
	"github.com/dmitrijs2005/cloudnotes/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps collects what NewRouter needs.
type RouterDeps struct {
	Users   UserService
	Notes   NoteService
	Uploads UploadService
	Tokens  TokenVerifier
	DB      Pinger
	Logger  logging.Logger

	// Metrics and Gatherer are optional; /metrics is only mounted when
	// Gatherer is set.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	Production        bool
	CORSAllowedOrigin string
	UploadMaxBytes    int64

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds the full route tree. API routes are served both at the
// root and under /api.
//
// Middleware order:
//
//	requestID -> logging -> metrics -> recovery -> securityHeaders -> CORS
func NewRouter(deps *RouterDeps) http.Handler {
	rs := &responder{logger: deps.Logger, production: deps.Production}
	h := &handler{
		users:          deps.Users,
		notes:          deps.Notes,
		uploads:        deps.Uploads,
		db:             deps.DB,
		rs:             rs,
		metrics:        deps.Metrics,
		uploadMaxBytes: deps.UploadMaxBytes,
		now:            deps.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	gate := newAuthGate(deps.Tokens, deps.Users, rs)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	r.Use(recoveryMiddleware(deps.Logger, deps.Production))
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.Middleware)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", h.listNotes)
				r.Post("/", h.createNote)
				r.Get("/{id}", h.getNote)
				r.Put("/{id}", h.updateNote)
				r.Delete("/{id}", h.deleteNote)
			})

			r.Post("/upload", h.upload)
			r.Get("/upload/{id}", h.fileURL)
		})
	}

	r.Group(api)
	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.info)
		api(r)
	})

	return r
}
