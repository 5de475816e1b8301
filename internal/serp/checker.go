package serp

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

const snapshotContentType = "text/html; charset=utf-8"

// Checker runs one keyword through fetch, parse and rank calculation.
type Checker struct {
	fetcher rank.SERPFetcher
	parser  *Parser
	logger  *zap.Logger

	archive       rank.BlobStore
	hasher        rank.Hasher
	archivePrefix string
}

// Option configures a Checker.
type Option func(*Checker)

// WithArchive stores every fetched page under prefix, keyed by content hash.
// Snapshots are write-only audit artifacts.
func WithArchive(store rank.BlobStore, hasher rank.Hasher, prefix string) Option {
	return func(c *Checker) {
		c.archive = store
		c.hasher = hasher
		c.archivePrefix = strings.Trim(prefix, "/")
	}
}

// NewChecker wires a fetcher and parser together.
func NewChecker(fetcher rank.SERPFetcher, parser *Parser, logger *zap.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{fetcher: fetcher, parser: parser, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entries fetches and parses the results page for keyword.
func (c *Checker) Entries(ctx context.Context, keyword string, scope rank.SearchScope) ([]rank.Entry, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("keyword is empty")
	}
	page, err := c.fetcher.Fetch(ctx, keyword, scope)
	if err != nil {
		return nil, fmt.Errorf("fetch serp: %w", err)
	}
	c.archivePage(ctx, scope, page)
	entries, err := c.parser.Parse(ctx, page.URL, page.Body)
	if err != nil {
		return nil, err
	}
	metrics.ObserveEntries(string(scope), len(entries))
	c.logger.Debug("serp parsed",
		zap.String("keyword", keyword),
		zap.String("scope", string(scope)),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// CheckSite returns the site's rank for keyword, or nil when it is not on the page.
func (c *Checker) CheckSite(
	ctx context.Context,
	keyword string,
	siteURL string,
	scope rank.SearchScope,
) (*rank.SiteRank, error) {
	entries, err := c.Entries(ctx, keyword, scope)
	if err != nil {
		return nil, err
	}
	found, ok := SiteRank(entries, siteURL)
	if !ok {
		return nil, nil
	}
	return &found, nil
}

// CheckURL looks for targetURL on the integrated results page for keyword.
func (c *Checker) CheckURL(ctx context.Context, keyword, targetURL, section string) (rank.URLTrack, error) {
	entries, err := c.Entries(ctx, keyword, rank.ScopeIntegrated)
	if err != nil {
		return rank.URLTrack{}, err
	}
	return TrackURL(entries, targetURL, section), nil
}

func (c *Checker) archivePage(ctx context.Context, scope rank.SearchScope, page rank.Page) {
	if c.archive == nil || c.hasher == nil || len(page.Body) == 0 {
		return
	}
	sum, err := c.hasher.Hash(page.Body)
	if err != nil {
		c.logger.Warn("hash serp snapshot failed", zap.Error(err))
		return
	}
	key := path.Join(c.archivePrefix, string(scope), sum+".html")
	uri, err := c.archive.PutObject(ctx, key, snapshotContentType, bytes.NewReader(page.Body))
	if err != nil {
		c.logger.Warn("archive serp snapshot failed", zap.String("path", key), zap.Error(err))
		return
	}
	c.logger.Debug("serp snapshot archived", zap.String("uri", uri))
}
