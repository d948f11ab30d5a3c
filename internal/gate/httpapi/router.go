// Package httpapi exposes the grant endpoints over HTTP.
//
// Checks run in a fixed order: method, Authorization header, token,
// request body, policy, object existence (reads only), minting. Every
// non-200 response carries {"error": "<message>"}.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/grants"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Grant endpoints. Both accept a POST with a JSON grant request and answer
// with a signed URL for one object.
const (
	// ReadPath issues download URLs. The object must already exist.
	ReadPath = "/generateReadUrl"
	// WritePath issues upload URLs bound to the requested content type.
	WritePath = "/generateUploadUrl"
)

// maxBodyBytes bounds grant request bodies.
const maxBodyBytes = 64 << 10

// GrantIssuer is the grant service as seen by the handlers.
type GrantIssuer interface {
	IssueRead(ctx context.Context, subject *auth.Subject, req grants.Request) (*grants.Grant, error)
	IssueWrite(ctx context.Context, subject *auth.Subject, req grants.Request) (*grants.Grant, error)
}

// Deps is everything the router needs.
type Deps struct {
	Verifier auth.Verifier
	Grants   GrantIssuer
	Logger   logging.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	// Mounts attaches extra handlers under a path prefix.
	Mounts map[string]http.Handler
}

// NewRouter builds the gate's HTTP handler.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("module", "httpapi")
	h := &handler{grants: d.Grants, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         3600,
	}))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Verifier, logger))
		r.Post(ReadPath, h.generateReadURL)
		r.Post(WritePath, h.generateUploadURL)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	for prefix, m := range d.Mounts {
		r.Mount(prefix, m)
	}

	return r
}
