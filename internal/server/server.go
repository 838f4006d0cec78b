package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aouyang1/go-pcrforecast"
	"github.com/aouyang1/go-pcrforecast/ssa"
	"github.com/aouyang1/go-pcrforecast/stats"
	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	outcomeOK                  = "ok"
	outcomeEmptyResult         = "empty_result"
	outcomeInsufficientData    = "insufficient_data"
	outcomeInsufficientHistory = "insufficient_history"
	outcomeInvalidOptions      = "invalid_options"
	outcomeInvalidInput        = "invalid_input"
	outcomeError               = "error"
)

const DefaultMaxBodyBytes = 10 << 20

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// ForecastRequest is the body of POST /v1/forecast. Options replace the server defaults when
// present.
type ForecastRequest struct {
	Tested   []timedataset.DatedCount `json:"tested"`
	Positive []timedataset.DatedCount `json:"positive"`
	Options  *pcrforecast.Options     `json:"options,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Outcome   string `json:"outcome"`
	RequestID string `json:"request_id"`
}

// Server exposes the forecast pipeline over HTTP
type Server struct {
	cfg     Config
	opt     *pcrforecast.Options
	router  *mux.Router
	metrics *Metrics
	logger  zerolog.Logger
}

type ctxKey struct{}

func New(cfg Config, opt *pcrforecast.Options, logger zerolog.Logger) *Server {
	if opt == nil {
		opt = pcrforecast.NewDefaultOptions()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:     cfg,
		opt:     opt,
		router:  mux.NewRouter(),
		metrics: NewMetrics(),
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/forecast", s.forecast).Methods(http.MethodPost)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves until the context is canceled and then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("serving forecasts")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shutdown server, %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, requestID)))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Info().
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) forecast(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		s.metrics.Runs.WithLabelValues(outcome).Inc()
		s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	var req ForecastRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		outcome = outcomeInvalidInput
		s.writeError(w, r, http.StatusBadRequest, outcome, fmt.Errorf("unable to decode request, %w", err))
		return
	}

	opt := req.Options
	if opt == nil {
		optCopy := *s.opt
		if s.opt.SSAOptions != nil {
			ssaCopy := *s.opt.SSAOptions
			optCopy.SSAOptions = &ssaCopy
		}
		opt = &optCopy
	}

	f, err := pcrforecast.New(opt)
	if err != nil {
		outcome = outcomeInvalidOptions
		s.writeError(w, r, http.StatusUnprocessableEntity, outcome, err)
		return
	}
	f.SetLogger(s.logger.With().Str("request_id", requestID(r.Context())).Logger())

	if err := f.Fit(req.Tested, req.Positive); err != nil {
		outcome = classify(err)
		status := http.StatusUnprocessableEntity
		if outcome == outcomeError {
			status = http.StatusInternalServerError
		}
		s.writeError(w, r, status, outcome, err)
		return
	}
	res, err := f.Predict()
	if err != nil {
		outcome = outcomeError
		s.writeError(w, r, http.StatusInternalServerError, outcome, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func classify(err error) string {
	switch {
	case errors.Is(err, timedataset.ErrEmptyResult):
		return outcomeEmptyResult
	case errors.Is(err, stats.ErrInsufficientData):
		return outcomeInsufficientData
	case errors.Is(err, ssa.ErrInsufficientHistory):
		return outcomeInsufficientHistory
	case errors.Is(err, timedataset.ErrDuplicateDate),
		errors.Is(err, timedataset.ErrNegativeCount):
		return outcomeInvalidInput
	}
	return outcomeError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, outcome string, err error) {
	s.logger.Warn().
		Err(err).
		Str("request_id", requestID(r.Context())).
		Str("outcome", outcome).
		Msg("forecast failed")

	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Outcome:   outcome,
		RequestID: requestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
