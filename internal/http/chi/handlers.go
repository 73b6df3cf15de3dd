package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/internal/auth"
	"github.com/marcelsud/bookshelf-api/metrics"
	"github.com/rs/zerolog"
)

const (
	defaultPerPage = 0
	defaultTimeout = 30 * time.Second
)

type settings struct {
	logger  *zerolog.Logger
	perPage int
	timeout time.Duration
}

// Option tunes the router built by Handlers
type Option func(*settings)

// WithLogger makes the request logger share the application's zerolog logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = &l
	}
}

// WithPerPage sets the page size of GET /v1/books. Zero lists everything.
func WithPerPage(n int) Option {
	return func(s *settings) {
		s.perPage = n
	}
}

// WithTimeout bounds each request. Zero disables the timeout middleware.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// Handlers builds the API router. exporter may be nil, in which case
// /metrics is not mounted.
func Handlers(ctx context.Context, bookService book.UseCase, authn auth.Authenticator, exporter *metrics.OTelExporter, opts ...Option) *chi.Mux {
	cfg := settings{
		perPage: defaultPerPage,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := httplog.NewLogger("bookshelf-api", httplog.Options{
		JSON: true,
	})
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.timeout > 0 {
		r.Use(middleware.Timeout(cfg.timeout))
	}
	if exporter != nil {
		r.Use(exporter.Middleware)
		r.Method(http.MethodGet, "/metrics", exporter.ServeHTTP())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/v1/books", func(r chi.Router) {
		r.Method(http.MethodGet, "/", getBooks(bookService, cfg.perPage))
		r.With(authenticate(authn)).Method(http.MethodPost, "/", postBooks(bookService))
		r.Method(http.MethodGet, "/{id}", getBook(bookService))
		r.Method(http.MethodPut, "/{id}", putBook(bookService))
		r.Method(http.MethodDelete, "/{id}", deleteBook(bookService))
	})

	return r
}
