package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 1000
	historyTimeout      = 3 * time.Second
)

// HistoryHandler exposes read-only ranking history endpoints.
type HistoryHandler struct {
	entities rank.EntityStore
	rankings rank.RankingStore
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHistoryHandler wires the stores and logger.
func NewHistoryHandler(entities rank.EntityStore, rankings rank.RankingStore, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{
		entities: entities,
		rankings: rankings,
		timeout:  historyTimeout,
		logger:   logger,
	}
}

// ListKeywordRankings handles GET /v1/keywords/{id}/rankings?limit=. It
// returns the newest rows first, 400 for a bad id or limit, 404 for an
// unknown keyword, or 500 for store errors.
func (h *HistoryHandler) ListKeywordRankings(w http.ResponseWriter, r *http.Request) {
	id, limit, ok := parseHistoryRequest(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.entities.GetKeyword(ctx, id); err != nil {
		h.lookupFailed(w, "keyword", err)
		return
	}
	rows, err := h.rankings.ListRankings(ctx, id, limit)
	if err != nil {
		h.logger.Error("list rankings failed", zap.Int64("keyword_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list rankings")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListTrackedURLRankings handles GET /v1/tracked-urls/{id}/rankings?limit=.
func (h *HistoryHandler) ListTrackedURLRankings(w http.ResponseWriter, r *http.Request) {
	id, limit, ok := parseHistoryRequest(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.entities.GetTrackedURL(ctx, id); err != nil {
		h.lookupFailed(w, "tracked url", err)
		return
	}
	rows, err := h.rankings.ListURLRankings(ctx, id, limit)
	if err != nil {
		h.logger.Error("list url rankings failed", zap.Int64("tracked_url_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list url rankings")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *HistoryHandler) lookupFailed(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, rank.ErrNotFound) {
		writeError(w, http.StatusNotFound, entity+" not found")
		return
	}
	h.logger.Error("history lookup failed", zap.String("entity", entity), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to load "+entity)
}

func parseHistoryRequest(w http.ResponseWriter, r *http.Request) (int64, int, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, 0, false
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return 0, 0, false
		}
		limit = min(val, maxHistoryLimit)
	}
	return id, limit, true
}
