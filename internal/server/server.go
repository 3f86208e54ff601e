// Package server exposes the dashboard views over HTTP. Views are computed
// per request from an immutable event snapshot loaded at startup.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ademuri/listen-trends/internal/calendar"
	"github.com/ademuri/listen-trends/internal/export"
	"github.com/ademuri/listen-trends/internal/leaderboard"
	"github.com/ademuri/listen-trends/internal/play"
	"github.com/ademuri/listen-trends/internal/rollup"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	AllowedOrigins []string
	TopN           int
	Leaderboard    leaderboard.Options
	Genres         rollup.GenreLookup

	// Cache stores encoded responses. Nil disables caching.
	Cache Cache

	// Location renders summary timestamps. Nil means UTC.
	Location *time.Location
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listen_trends_http_requests_total",
				Help: "Count of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "listen_trends_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listen_trends_cache_lookups_total",
				Help: "Count of response cache lookups",
			},
			[]string{"route", "result"},
		),
	}
}

type Server struct {
	events   []play.Bucketed
	extent   string
	cfg      Config
	router   *mux.Router
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// New builds a server over events. The slice must not be modified afterwards.
func New(events []play.Bucketed, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Cache == nil {
		cfg.Cache = noCache{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		events:   events,
		extent:   play.ExtentOf(events).Hash(),
		cfg:      cfg,
		router:   mux.NewRouter(),
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.routes()
	return s
}

type viewFunc func(events []play.Bucketed, r *http.Request) (interface{}, error)

func (s *Server) routes() {
	s.router.Use(s.instrument)

	api := s.router.PathPrefix("/api").Methods(http.MethodGet).Subrouter()
	api.Handle("/summary", s.view(s.summary))
	api.Handle("/trends", s.view(listOf(rollup.Monthly)))
	api.Handle("/dow", s.view(listOf(rollup.DayOfWeek)))
	api.Handle("/hour", s.view(listOf(rollup.Hourly)))
	api.Handle("/top-artists", s.view(s.top(play.Artist)))
	api.Handle("/top-tracks", s.view(s.top(play.Track)))
	api.Handle("/artist-evolution", s.view(s.evolution))
	api.Handle("/discovery-rate", s.view(listOf(rollup.DiscoveryRate)))
	api.Handle("/genres", s.view(s.genres))

	s.router.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and panic recovery.
func (s *Server) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.logger)))
	return handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(recovery(s.router))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", addr), zap.Int("events", len(s.events)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// responseWriter captures the status code for metrics and logs.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routeName(r)
		elapsed := time.Since(start)
		s.metrics.duration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("elapsed", elapsed),
		)
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// paramError marks a bad query parameter; it maps to 400.
type paramError struct {
	name  string
	value string
	err   error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.name, e.value, e.err)
}

func (e *paramError) Unwrap() error { return e.err }

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type listBody struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

func listOf[T any](f func([]play.Bucketed) []T) viewFunc {
	return func(events []play.Bucketed, _ *http.Request) (interface{}, error) {
		return list(f(events)), nil
	}
}

func list[T any](rows []T) listBody {
	if rows == nil {
		rows = []T{}
	}
	return listBody{Data: rows, Count: len(rows)}
}

// view wraps f with date filtering, the response cache and error mapping.
func (s *Server) view(f viewFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeName(r)
		key := "listen-trends:" + route + "?" + r.URL.Query().Encode() + "#" + s.extent

		if body, ok, err := s.cfg.Cache.Get(r.Context(), key); err != nil {
			s.logger.Warn("cache get failed", zap.String("route", route), zap.Error(err))
		} else if ok {
			s.metrics.cache.WithLabelValues(route, "hit").Inc()
			writeBody(w, http.StatusOK, body)
			return
		}
		s.metrics.cache.WithLabelValues(route, "miss").Inc()

		events, err := filter(s.events, r)
		var result interface{}
		if err == nil {
			result, err = f(events, r)
		}
		if err != nil {
			s.fail(w, route, err)
			return
		}

		body, err := json.Marshal(result)
		if err != nil {
			s.fail(w, route, fmt.Errorf("encoding response: %w", err))
			return
		}
		if err := s.cfg.Cache.Set(r.Context(), key, body); err != nil {
			s.logger.Warn("cache set failed", zap.String("route", route), zap.Error(err))
		}
		writeBody(w, http.StatusOK, body)
	})
}

func (s *Server) fail(w http.ResponseWriter, route string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	var pe *paramError
	if errors.As(err, &pe) {
		status = http.StatusBadRequest
		msg = "bad request"
	} else {
		s.logger.Error("view failed", zap.String("route", route), zap.Error(err))
	}
	body, _ := json.Marshal(errorBody{Error: msg, Details: err.Error()})
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// filter keeps events whose local date lies within the inclusive start and
// end query parameters (yyyy-mm-dd).
func filter(events []play.Bucketed, r *http.Request) ([]play.Bucketed, error) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	for name, v := range map[string]string{"start": start, "end": end} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return nil, &paramError{name: name, value: v, err: errors.New("want yyyy-mm-dd")}
		}
	}
	if start == "" && end == "" {
		return events, nil
	}

	out := make([]play.Bucketed, 0, len(events))
	for _, e := range events {
		if start != "" && e.Bucket.Date < start {
			continue
		}
		if end != "" && e.Bucket.Date > end {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &paramError{name: name, value: v, err: errors.New("want a non-negative integer")}
	}
	return n, nil
}

func (s *Server) summary(events []play.Bucketed, _ *http.Request) (interface{}, error) {
	return rollup.Summarize(events, s.cfg.Location), nil
}

func (s *Server) top(dim play.Dimension) viewFunc {
	return func(events []play.Bucketed, r *http.Request) (interface{}, error) {
		n, err := intParam(r, "n", s.cfg.TopN)
		if err != nil {
			return nil, err
		}
		return list(rollup.Top(events, dim, n)), nil
	}
}

func (s *Server) evolution(events []play.Bucketed, r *http.Request) (interface{}, error) {
	opts := s.cfg.Leaderboard
	topK, err := intParam(r, "top", opts.TopK)
	if err != nil {
		return nil, err
	}
	if v := r.URL.Query().Get("top"); v != "" && topK == 0 {
		return nil, &paramError{name: "top", value: v, err: errors.New("want a positive integer")}
	}
	opts.TopK = topK

	dim := play.Artist
	if v := r.URL.Query().Get("dimension"); v != "" {
		if dim, err = play.ParseDimension(v); err != nil {
			return nil, &paramError{name: "dimension", value: v, err: err}
		}
	}

	rows := export.EvolutionRows(leaderboard.Compute(events, dim, opts), dim)
	if v := r.URL.Query().Get("quarter"); v != "" {
		q, err := calendar.ParseQuarter(v)
		if err != nil {
			return nil, &paramError{name: "quarter", value: v, err: err}
		}
		kept := rows[:0]
		for _, row := range rows {
			if row.YearQuarter == q.Key() {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	return list(rows), nil
}

func (s *Server) genres(events []play.Bucketed, _ *http.Request) (interface{}, error) {
	return list(rollup.Genres(events, s.cfg.Genres)), nil
}
