package collyfetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

var _ rank.RedirectResolver = (*Resolver)(nil)

// Resolver follows exactly one redirect hop of an ad link and reports the
// Location it points at.
type Resolver struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewResolver builds a Resolver that never follows redirects itself.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client: &http.Client{
			Transport: newHTTPTransport(),
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Resolve issues a GET to link and returns the absolute Location of a 3xx
// response. Any failure yields ("", false).
func (r *Resolver) Resolve(ctx context.Context, link string) (string, bool) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		metrics.ObserveRedirect("error")
		return "", false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.ObserveRedirect("error")
		r.logger.Debug("redirect resolution failed", zap.String("url", link), zap.Error(err))
		return "", false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		metrics.ObserveRedirect("missing")
		return "", false
	}
	loc, err := resp.Location()
	if err != nil || loc.String() == "" {
		metrics.ObserveRedirect("missing")
		return "", false
	}
	metrics.ObserveRedirect("resolved")
	r.logger.Debug("redirect resolved",
		zap.String("url", link),
		zap.String("location", loc.String()),
		zap.Duration("duration", time.Since(start)),
	)
	return loc.String(), true
}
