package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/config"
	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

const (
	maxBodyBytes        = 1 << 20
	readTimeout         = 30 * time.Second
	defaultBatchTimeout = 5 * time.Minute
)

// BatchChecker runs rank-check batches. *tracker.Tracker satisfies it.
type BatchChecker interface {
	CheckKeywords(ctx context.Context, ids []int64, scope rank.SearchScope) []rank.KeywordReport
	CheckTrackedURLs(ctx context.Context, ids []int64) []rank.URLReport
	CheckActiveKeywords(ctx context.Context, scope rank.SearchScope) ([]rank.KeywordReport, error)
	CheckActiveTrackedURLs(ctx context.Context) ([]rank.URLReport, error)
}

// Pinger reports whether a downstream dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the tracker and stores.
type Server struct {
	router  chi.Router
	checker BatchChecker
	history *HistoryHandler
	ready   Pinger
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. ready may be nil.
func NewServer(
	checker BatchChecker,
	entities rank.EntityStore,
	rankings rank.RankingStore,
	ready Pinger,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		checker: checker,
		history: NewHistoryHandler(entities, rankings, logger),
		ready:   ready,
		cfg:     cfg,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		// Batch routes carry their deadline in the context so the tracker can
		// report the unfinished ids instead of the response being replaced.
		r.Route("/rankings", func(r chi.Router) {
			r.Post("/keywords/check", s.checkKeywords)
			r.Post("/keywords/check-active", s.checkActiveKeywords)
			r.Post("/tracked-urls/check", s.checkTrackedURLs)
			r.Post("/tracked-urls/check-active", s.checkActiveTrackedURLs)
		})
		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(readTimeout))
			r.Get("/keywords/{id}/rankings", s.history.ListKeywordRankings)
			r.Get("/tracked-urls/{id}/rankings", s.history.ListTrackedURLRankings)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type checkRequest struct {
	IDs        []int64          `json:"ids"`
	SearchType rank.SearchScope `json:"search_type"`
}

func (s *Server) checkKeywords(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCheckRequest(w, r, true)
	if !ok {
		return
	}
	ctx, cancel := s.batchContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.checker.CheckKeywords(ctx, req.IDs, req.SearchType))
}

func (s *Server) checkTrackedURLs(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCheckRequest(w, r, true)
	if !ok {
		return
	}
	ctx, cancel := s.batchContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.checker.CheckTrackedURLs(ctx, req.IDs))
}

func (s *Server) checkActiveKeywords(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCheckRequest(w, r, false)
	if !ok {
		return
	}
	ctx, cancel := s.batchContext(r)
	defer cancel()
	reports, err := s.checker.CheckActiveKeywords(ctx, req.SearchType)
	if err != nil {
		s.logger.Error("active keyword batch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list active keywords")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) checkActiveTrackedURLs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.batchContext(r)
	defer cancel()
	reports, err := s.checker.CheckActiveTrackedURLs(ctx)
	if err != nil {
		s.logger.Error("active tracked url batch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list active tracked urls")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// batchContext bounds a batch by server.request_timeout_seconds. Items left
// when it expires are reported with the deadline error; the array stays
// complete and the status stays 200.
func (s *Server) batchContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := s.cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultBatchTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// decodeCheckRequest parses the batch body. An empty body is accepted only
// when ids are optional.
func (s *Server) decodeCheckRequest(w http.ResponseWriter, r *http.Request, requireIDs bool) (checkRequest, bool) {
	var req checkRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF) && !requireIDs:
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return checkRequest{}, false
	}
	if requireIDs && len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids required")
		return checkRequest{}, false
	}
	if req.SearchType != "" && !req.SearchType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported search_type %q", req.SearchType))
		return checkRequest{}, false
	}
	return req, true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the id assigned by the request-id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.String("request_id", RequestID(r.Context())),
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
