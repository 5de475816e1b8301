// Package tracker runs batches of rank checks one item at a time and turns
// every outcome, success or failure, into a report entry.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/metrics"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

// Checker computes ranks for a single keyword. *serp.Checker satisfies it.
type Checker interface {
	CheckSite(ctx context.Context, keyword, siteURL string, scope rank.SearchScope) (*rank.SiteRank, error)
	CheckURL(ctx context.Context, keyword, targetURL, section string) (rank.URLTrack, error)
}

// Config controls Tracker behavior.
type Config struct {
	// DefaultScope is used when a site-rank batch names no search type.
	DefaultScope rank.SearchScope
}

// Check outcome labels for rank_checks_total.
const (
	outcomeRanked        = "ranked"
	outcomeUnranked      = "unranked"
	outcomeLookupFailed  = "lookup_failed"
	outcomeCheckFailed   = "check_failed"
	outcomePersistFailed = "persist_failed"
	outcomeCanceled      = "canceled"
)

// Tracker sequences lookups, checks, persistence and event publishing.
type Tracker struct {
	entities  rank.EntityStore
	rankings  rank.RankingStore
	checker   Checker
	publisher rank.Publisher
	ids       rank.IDGenerator
	clock     rank.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Tracker. publisher may be nil.
func New(
	entities rank.EntityStore,
	rankings rank.RankingStore,
	checker Checker,
	publisher rank.Publisher,
	ids rank.IDGenerator,
	clock rank.Clock,
	cfg Config,
	logger *zap.Logger,
) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.DefaultScope.Valid() {
		cfg.DefaultScope = rank.ScopeIntegrated
	}
	return &Tracker{
		entities:  entities,
		rankings:  rankings,
		checker:   checker,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// DefaultScope returns the scope applied when a batch names none.
func (t *Tracker) DefaultScope() rank.SearchScope {
	return t.cfg.DefaultScope
}

// CheckKeywords checks each keyword's site rank in order. The result has one
// entry per id, in input order; a failed item never stops the batch. Once ctx
// is done the remaining ids are reported with the context error.
func (t *Tracker) CheckKeywords(ctx context.Context, ids []int64, scope rank.SearchScope) []rank.KeywordReport {
	if scope == "" {
		scope = t.cfg.DefaultScope
	}
	start := time.Now()
	reports := make([]rank.KeywordReport, 0, len(ids))
	failed := 0
	for _, id := range ids {
		var report rank.KeywordReport
		if err := ctx.Err(); err != nil {
			metrics.ObserveCheck(string(rank.CheckTypeSite), outcomeCanceled)
			report = rank.KeywordReport{ID: id, Error: err.Error()}
		} else {
			report = t.checkKeyword(ctx, id, scope)
		}
		if !report.Ok() {
			failed++
		}
		reports = append(reports, report)
	}
	t.logger.Info("keyword batch finished",
		zap.Int("items", len(ids)),
		zap.Int("failed", failed),
		zap.String("scope", string(scope)),
		zap.Duration("duration", time.Since(start)),
	)
	return reports
}

// CheckTrackedURLs checks each tracked URL's exposure in order, with the same
// per-item isolation as CheckKeywords.
func (t *Tracker) CheckTrackedURLs(ctx context.Context, ids []int64) []rank.URLReport {
	start := time.Now()
	reports := make([]rank.URLReport, 0, len(ids))
	failed := 0
	for _, id := range ids {
		var report rank.URLReport
		if err := ctx.Err(); err != nil {
			metrics.ObserveCheck(string(rank.CheckTypeURL), outcomeCanceled)
			report = rank.URLReport{ID: id, Error: err.Error()}
		} else {
			report = t.checkTrackedURL(ctx, id)
		}
		if !report.Ok() {
			failed++
		}
		reports = append(reports, report)
	}
	t.logger.Info("tracked url batch finished",
		zap.Int("items", len(ids)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
	return reports
}

// CheckActiveKeywords runs CheckKeywords over every active keyword.
func (t *Tracker) CheckActiveKeywords(ctx context.Context, scope rank.SearchScope) ([]rank.KeywordReport, error) {
	ids, err := t.entities.ListActiveKeywordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active keywords: %w", err)
	}
	return t.CheckKeywords(ctx, ids, scope), nil
}

// CheckActiveTrackedURLs runs CheckTrackedURLs over every active tracked URL.
func (t *Tracker) CheckActiveTrackedURLs(ctx context.Context) ([]rank.URLReport, error) {
	ids, err := t.entities.ListActiveTrackedURLIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tracked urls: %w", err)
	}
	return t.CheckTrackedURLs(ctx, ids), nil
}

func (t *Tracker) checkKeyword(ctx context.Context, id int64, scope rank.SearchScope) rank.KeywordReport {
	log := t.logger.With(zap.Int64("keyword_id", id), zap.String("scope", string(scope)))

	kw, err := t.entities.GetKeyword(ctx, id)
	if err != nil {
		return t.keywordFailure(log, id, outcomeLookupFailed, err)
	}
	site, err := t.entities.GetSite(ctx, kw.SiteID)
	if err != nil {
		return t.keywordFailure(log, id, outcomeLookupFailed, err)
	}

	found, err := t.checker.CheckSite(ctx, kw.Keyword, site.URL, scope)
	if err != nil {
		return t.keywordFailure(log, id, outcomeCheckFailed, err)
	}

	outcome := &rank.KeywordOutcome{
		KeywordID:  kw.ID,
		Keyword:    kw.Keyword,
		SiteURL:    site.URL,
		SearchType: scope,
		CheckedAt:  t.clock.Now(),
	}
	if found != nil {
		pos, url, title := found.Rank, found.URL, found.Title
		outcome.Rank, outcome.URL, outcome.Title = &pos, &url, &title
	}
	report := rank.KeywordReport{ID: id, KeywordOutcome: outcome}

	rowID, err := t.ids.NewID()
	if err == nil {
		outcome.RankingID = rowID
		err = t.rankings.AppendRanking(ctx, rank.Ranking{
			ID:           rowID,
			KeywordID:    kw.ID,
			RankPosition: outcome.Rank,
			SearchType:   scope,
			ResultURL:    outcome.URL,
			ResultTitle:  outcome.Title,
			CheckedAt:    outcome.CheckedAt,
		})
	}
	if err != nil {
		outcome.RankingID = ""
		report.PersistError = err.Error()
		metrics.ObserveCheck(string(rank.CheckTypeSite), outcomePersistFailed)
		log.Error("ranking not persisted", zap.Error(err))
		return report
	}

	t.publish(ctx, log, rank.RankingEvent{
		CheckType: rank.CheckTypeSite,
		RankingID: rowID,
		EntityID:  kw.ID,
		Keyword:   kw.Keyword,
		Rank:      outcome.Rank,
		Exposed:   outcome.Rank != nil,
		CheckedAt: outcome.CheckedAt,
	})

	label := outcomeUnranked
	if outcome.Rank != nil {
		label = outcomeRanked
	}
	metrics.ObserveCheck(string(rank.CheckTypeSite), label)
	log.Debug("keyword checked", zap.String("outcome", label), zap.String("ranking_id", rowID))
	return report
}

func (t *Tracker) checkTrackedURL(ctx context.Context, id int64) rank.URLReport {
	log := t.logger.With(zap.Int64("tracked_url_id", id))

	tu, err := t.entities.GetTrackedURL(ctx, id)
	if err != nil {
		return t.urlFailure(log, id, outcomeLookupFailed, err)
	}
	section := ""
	if tu.Section != nil {
		section = *tu.Section
	}

	track, err := t.checker.CheckURL(ctx, tu.Keyword, tu.TargetURL, section)
	if err != nil {
		return t.urlFailure(log, id, outcomeCheckFailed, err)
	}

	outcome := &rank.URLOutcome{
		URLTrack:  track,
		Keyword:   tu.Keyword,
		TargetURL: tu.TargetURL,
		Section:   tu.Section,
		CheckedAt: t.clock.Now(),
	}
	report := rank.URLReport{ID: id, URLOutcome: outcome}

	sectionName := track.FoundInSection
	if sectionName == nil {
		sectionName = tu.Section
	}

	rowID, err := t.ids.NewID()
	if err == nil {
		outcome.RankingID = rowID
		err = t.rankings.AppendURLRanking(ctx, rank.URLRanking{
			ID:            rowID,
			TrackedURLID:  tu.ID,
			RankPosition:  track.OverallRank,
			SectionName:   sectionName,
			SectionRank:   track.SectionRank,
			IsExposed:     track.IsExposed,
			SectionExists: track.SectionExists,
			CheckedAt:     outcome.CheckedAt,
		})
	}
	if err != nil {
		outcome.RankingID = ""
		report.PersistError = err.Error()
		metrics.ObserveCheck(string(rank.CheckTypeURL), outcomePersistFailed)
		log.Error("url ranking not persisted", zap.Error(err))
		return report
	}

	t.publish(ctx, log, rank.RankingEvent{
		CheckType: rank.CheckTypeURL,
		RankingID: rowID,
		EntityID:  tu.ID,
		Keyword:   tu.Keyword,
		Rank:      track.OverallRank,
		Section:   sectionName,
		Exposed:   track.IsExposed,
		CheckedAt: outcome.CheckedAt,
	})

	label := outcomeUnranked
	if track.IsExposed {
		label = outcomeRanked
	}
	metrics.ObserveCheck(string(rank.CheckTypeURL), label)
	log.Debug("tracked url checked", zap.String("outcome", label), zap.String("ranking_id", rowID))
	return report
}

func (t *Tracker) keywordFailure(log *zap.Logger, id int64, outcome string, err error) rank.KeywordReport {
	metrics.ObserveCheck(string(rank.CheckTypeSite), outcome)
	logFailure(log, outcome, err)
	return rank.KeywordReport{ID: id, Error: err.Error()}
}

func (t *Tracker) urlFailure(log *zap.Logger, id int64, outcome string, err error) rank.URLReport {
	metrics.ObserveCheck(string(rank.CheckTypeURL), outcome)
	logFailure(log, outcome, err)
	return rank.URLReport{ID: id, Error: err.Error()}
}

func logFailure(log *zap.Logger, outcome string, err error) {
	if errors.Is(err, rank.ErrNotFound) {
		log.Info("check skipped", zap.String("outcome", outcome), zap.Error(err))
		return
	}
	log.Warn("check failed", zap.String("outcome", outcome), zap.Error(err))
}

func (t *Tracker) publish(ctx context.Context, log *zap.Logger, event rank.RankingEvent) {
	if t.publisher == nil {
		return
	}
	if _, err := t.publisher.Publish(ctx, rank.EventRankingChecked, event); err != nil {
		log.Warn("ranking event not published", zap.Error(err))
	}
}
