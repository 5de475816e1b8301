// Package collyfetcher retrieves Naver result pages with gocolly and resolves
// ad-redirect links with a non-following HTTP client.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

// Defaults applied when Config leaves a field empty.
const (
	DefaultBaseURL        = "https://search.naver.com/search.naver"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultTimeout        = 15 * time.Second
)

// Config controls collector behavior.
type Config struct {
	BaseURL        string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Waiter spaces outbound requests.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Ensure Fetcher implements rank.SERPFetcher at compile time.
var _ rank.SERPFetcher = (*Fetcher)(nil)

// Fetcher implements rank.SERPFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	limiter       Waiter
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. limiter may be nil.
func New(cfg Config, limiter Waiter, logger *zap.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
		logger:        logger,
	}
}

// SearchURL builds the results-page URL for keyword in the given vertical.
func (f *Fetcher) SearchURL(keyword string, scope rank.SearchScope) (string, error) {
	u, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("where", string(scope))
	q.Set("sm", "tab_jum")
	q.Set("query", keyword)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch executes a single HTTP GET for the keyword's results page. It never
// retries; every failure is returned as a *rank.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, keyword string, scope rank.SearchScope) (rank.Page, error) {
	if scope == "" {
		scope = rank.ScopeIntegrated
	}
	target, err := f.SearchURL(strings.TrimSpace(keyword), scope)
	if err != nil {
		return rank.Page{}, &rank.FetchError{URL: f.cfg.BaseURL, Err: err}
	}
	if !scope.Valid() {
		return rank.Page{}, &rank.FetchError{URL: target, Err: fmt.Errorf("unsupported search scope %q", scope)}
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, target); err != nil {
			return rank.Page{}, &rank.FetchError{URL: target, Err: err}
		}
	}

	var (
		result   rank.Page
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx, start, &result, &fetchErr)
	err = f.runCollector(ctx, collector, target, &fetchErr)
	if err == nil && (result.StatusCode < 200 || result.StatusCode > 299) {
		err = fmt.Errorf("unexpected status %d", result.StatusCode)
	}
	if err != nil {
		outcome := fetchOutcome(err)
		metrics.ObserveSERPFetch(string(scope), outcome, time.Since(start))
		level := zap.WarnLevel
		if outcome == outcomeCanceled {
			level = zap.DebugLevel
		}
		f.logger.Log(level, "serp fetch failed",
			zap.String("url", target),
			zap.Int("status", result.StatusCode),
			zap.Error(err),
		)
		return rank.Page{}, &rank.FetchError{URL: target, StatusCode: result.StatusCode, Err: err}
	}
	metrics.ObserveSERPFetch(string(scope), "ok", result.Duration)
	f.logger.Debug("serp fetched",
		zap.String("url", target),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (f *Fetcher) buildCollector(
	ctx context.Context,
	start time.Time,
	result *rank.Page,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.Context = ctx
	f.configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *rank.Page,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = rank.Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		// The collector shares ctx, so the in-flight request aborts promptly.
		<-done
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}

const (
	outcomeError    = "error"
	outcomeCanceled = "canceled"
)

// fetchOutcome labels a failed fetch. Caller cancellation and deadlines are
// kept apart from upstream failures.
func fetchOutcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeCanceled
	}
	return outcomeError
}
