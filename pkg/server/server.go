// Package server exposes a session over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics                          Prometheus exposition
//	POST   /resolve                          resolve and store a report
//	GET    /reports                          newest reports, ?limit=N
//	GET    /reports/{id}
//	DELETE /reports/{id}
//	GET    /versions/{group}/{artifact}      ?range=[1.0,2.0)
//
// Identical resolve requests for release versions are answered from the
// stored report until it expires. The mapping from request to report ID
// lives in a [cache.Cache].
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/report"
	"github.com/matzehuels/stackresolve/pkg/session"
)

const (
	DefaultAddr           = ":8080"
	DefaultResolveTimeout = 5 * time.Minute
	DefaultListLimit      = 50

	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

// Options configures a Server.
type Options struct {
	Addr           string              // Listen address (default: ":8080")
	ResolveTimeout time.Duration       // Per request (default: 5m)
	Gatherer       prometheus.Gatherer // Served on /metrics (default: prometheus.DefaultGatherer)
	Cache          cache.Cache         // Request deduplication index (default: none)
	Keyer          cache.Keyer
	Logger         *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Server serves resolutions and reports.
type Server struct {
	sess   *session.Session
	store  report.Store
	opts   Options
	router chi.Router
}

// New creates a Server. The session and store stay owned by the caller.
func New(sess *session.Session, store report.Store, opts Options) *Server {
	s := &Server{sess: sess, store: store, opts: opts.WithDefaults()}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/resolve", s.handleResolve)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleListReports)
		r.Get("/{id}", s.handleGetReport)
		r.Delete("/{id}", s.handleDeleteReport)
	})
	r.Get("/versions/{group}/{artifact}", s.handleVersions)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	reports, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errs.UserMessage(err), Code: code})
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidCoordinate, errs.ErrCodeVersionParse:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeReportNotFound, errs.ErrCodeArtifactNotFound:
		return http.StatusNotFound
	case errs.ErrCodeDependencyCollection, errs.ErrCodeDependencyResolution, errs.ErrCodeVersionResolution:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeOffline, errs.ErrCodeNetwork, errs.ErrCodeArtifactTransfer:
		return http.StatusBadGateway
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
